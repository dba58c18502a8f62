// Command client streams simulated engine frames to the server over TCP,
// split in chunks of random size.
package main

import (
	"flag"
	"log"
	"math/rand/v2"
	"net"
	"time"

	"github.com/anand2532/SAE-J1939-parser/frame"
	"github.com/anand2532/SAE-J1939-parser/protocol"
)

const (
	eec1ID = 0x0CF00400
	et1ID  = 0x18FEEE00
	eflID  = 0x18FEEF00
)

// simulate returns the three frames of a simulated engine cycle.
func simulate(r *rand.Rand, ts time.Time) []frame.CANFrame {
	eec1 := frame.CANFrame{ID: eec1ID, Timestamp: ts}
	// engine speed between 600 and 2100 rpm, 0.125 rpm/bit
	speed := uint16((600 + r.IntN(1500)) * 8)
	eec1.Data = [protocol.DataLength]byte{0x03, 0x7D, byte(125 + r.IntN(50)), byte(speed), byte(speed >> 8), 0x00, 0x01, 0x7D}

	et1 := frame.CANFrame{ID: et1ID, Timestamp: ts}
	// coolant and fuel temperature, 1 degC/bit with a -40 offset
	et1.Data = [protocol.DataLength]byte{byte(110 + r.IntN(20)), byte(80 + r.IntN(20)), 0x20, 0x23, 0xFF, 0xFF, 0xFF, 0xFF}

	efl := frame.CANFrame{ID: eflID, Timestamp: ts}
	// oil pressure 4 kPa/bit, coolant level 0.4 %/bit
	efl.Data = [protocol.DataLength]byte{0xFF, 0xFF, 0xFF, byte(60 + r.IntN(40)), 0xFF, 0xFF, 0xFF, byte(200 + r.IntN(50))}

	return []frame.CANFrame{eec1, et1, efl}
}

// chunks splits data in chunks of 1 to maxChunk bytes.
func chunks(r *rand.Rand, data []byte, maxChunk int) [][]byte {
	out := [][]byte{}
	for len(data) > 0 {
		n := min(1+r.IntN(maxChunk), len(data))
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server address")
	cycles := flag.Int("cycles", 1000, "number of simulated engine cycles")
	interval := flag.Duration("interval", 10*time.Millisecond, "pause between two cycles")
	maxChunk := flag.Int("max-chunk", 30, "maximum size of a single write")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "seed of the simulation")
	flag.Parse()

	if *maxChunk < 1 {
		log.Fatal("max-chunk must be positive")
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	r := rand.New(rand.NewPCG(*seed, *seed))

	t1 := time.Now()
	sentBytes := 0

	buf := []byte{}
	for i := range *cycles {
		buf = buf[:0]
		for _, f := range simulate(r, time.Now()) {
			buf = frame.AppendEncode(buf, f)
		}

		for _, chunk := range chunks(r, buf, *maxChunk) {
			if _, err := conn.Write(chunk); err != nil {
				log.Fatal(err)
			}
			sentBytes += len(chunk)
		}

		if i%100 == 0 {
			log.Printf("sent %d cycles", i)
		}

		time.Sleep(*interval)
	}

	elapsed := time.Since(t1)
	log.Print("frames sent: ", *cycles*3)
	log.Print("bytes per sec: ", float64(sentBytes)/elapsed.Seconds())
}
