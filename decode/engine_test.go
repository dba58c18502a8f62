package decode

import (
	"sync"
	"testing"
	"time"

	"github.com/anand2532/SAE-J1939-parser/alert"
	"github.com/anand2532/SAE-J1939-parser/anomaly"
	"github.com/anand2532/SAE-J1939-parser/catalog"
	"github.com/anand2532/SAE-J1939-parser/frame"
	"github.com/anand2532/SAE-J1939-parser/protocol"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eec1Frame() frame.CANFrame {
	return frame.CANFrame{
		ID:        0x0CF00400,
		Data:      [8]byte{0x03, 0x7D, 0x82, 0xE8, 0x03, 0x00, 0x01, 0x7D},
		Timestamp: time.Unix(1700000000, 0),
	}
}

func testCatalog() *catalog.Catalog {
	return catalog.NewBuilder(catalog.Reject).Add(
		catalog.PGN{
			PGN:  0xFF10,
			Name: "Test",
			SPNs: []catalog.SPN{
				{ID: 1, Name: "Tail", Position: protocol.Bytes(8, 2)},
				{ID: 2, Name: "Head", Position: protocol.Bytes(1, 1), Resolution: 0.5, Offset: -10},
				{ID: 3, Name: "Cut", Position: protocol.Bits(61, 8)},
			},
		},
	).MustBuild()
}

func Test_Engine_DecodeKnown(t *testing.T) {
	assert := assert.New(t)

	e := NewEngine(catalog.Default())
	msg := e.DecodeFrame(eec1Frame())

	assert.Equal(StatusSuccess, msg.Status)
	assert.Equal("0xF004", msg.PGNHex)
	assert.Equal("Electronic Engine Controller 1 - EEC1", msg.PGNName)
	assert.Equal(uint8(3), msg.Priority)
	assert.Equal(eec1Frame().Timestamp, msg.Timestamp)
	assert.NoError(msg.Err)
	require.Len(t, msg.SPNs, 7)

	torqueMode := msg.SPNs[0]
	assert.Equal(uint32(899), torqueMode.ID)
	assert.Equal(uint64(3), torqueMode.Raw)

	speed := msg.SPNs[3]
	assert.Equal("Engine Speed", speed.Name)
	assert.Equal(uint64(1000), speed.Raw)
	assert.Equal(125.0, speed.Value)
	assert.Nil(speed.Alert)
	assert.Nil(speed.Anomaly)

	starter := msg.SPNs[5]
	assert.Equal(uint32(1675), starter.ID)
	assert.Equal(uint64(1), starter.Raw)

	stats := e.Stats()
	assert.Equal(uint64(1), stats.Total)
	assert.Equal(uint64(1), stats.Decoded)
	assert.Zero(stats.Unknown)
	assert.Zero(stats.Errors)
}

func Test_Engine_Unknown(t *testing.T) {
	assert := assert.New(t)

	e := NewEngine(catalog.Default())
	f := frame.CANFrame{ID: 0x18ABCD00, Data: [8]byte{1, 2, 3}}

	for range 2 {
		msg := e.DecodeFrame(f)
		assert.Equal(StatusUnknownPGN, msg.Status)
		assert.Equal("0xABCD", msg.PGNHex)
		assert.Empty(msg.PGNName)
		assert.Empty(msg.SPNs)
		assert.Equal(f.Data, msg.Data)
	}

	stats := e.Stats()
	assert.Equal(uint64(2), stats.Total)
	assert.Equal(uint64(2), stats.Unknown)
	assert.Zero(stats.Decoded)
	assert.Equal([]uint32{0xABCD}, stats.SortedUnknownPGNs())
	assert.Equal([]string{"0xABCD"}, stats.UnknownPGNsHex())
}

func Test_Engine_EmptyDefinition(t *testing.T) {
	assert := assert.New(t)

	e := NewEngine(catalog.Default())
	msg := e.DecodeFrame(frame.CANFrame{ID: 0x18FF0000})

	assert.Equal(StatusSuccess, msg.Status)
	assert.Equal("0xFF00", msg.PGNHex)
	assert.NotEmpty(msg.PGNName)
	assert.Empty(msg.SPNs)
	assert.Equal(uint64(1), e.Stats().Decoded)
}

func Test_Engine_SPNFailures(t *testing.T) {
	assert := assert.New(t)

	e := NewEngine(testCatalog())
	msg := e.DecodeFrame(frame.CANFrame{
		ID:   protocol.Compose(protocol.Header{Priority: 6, PDUFormat: 0xFF, PDUSpecific: 0x10}),
		Data: [8]byte{40, 0, 0, 0, 0, 0, 0, 0xF0},
	})

	assert.Equal(StatusSuccess, msg.Status)
	require.Len(t, msg.SPNs, 3)

	assert.ErrorIs(msg.SPNs[0].Err, protocol.ErrDataTooShort)
	assert.Zero(msg.SPNs[0].Value)

	assert.NoError(msg.SPNs[1].Err)
	assert.Equal(10.0, msg.SPNs[1].Value)

	assert.NoError(msg.SPNs[2].Err)
	assert.True(msg.SPNs[2].Truncated)
	assert.Equal(uint64(0xF), msg.SPNs[2].Raw)

	stats := e.Stats()
	assert.Equal(uint64(1), stats.Decoded)
	assert.Zero(stats.Errors)
}

type panickingEvaluator struct{}

func (panickingEvaluator) Evaluate(string, float64) (alert.Result, bool) {
	panic("boom")
}

func Test_Engine_RecoversAtFrameBoundary(t *testing.T) {
	assert := assert.New(t)

	e := NewEngine(catalog.Default(), WithAlertEvaluator(panickingEvaluator{}))

	var msg Message
	assert.NotPanics(func() {
		msg = e.DecodeFrame(eec1Frame())
	})

	assert.Equal(StatusError, msg.Status)
	assert.Empty(msg.SPNs)

	var fdErr *FrameDecodeError
	require.True(t, errors.As(msg.Err, &fdErr))
	require.NotNil(t, fdErr.PGN)
	assert.Equal(uint32(0xF004), *fdErr.PGN)
	assert.Contains(msg.Err.Error(), "boom")

	// the next frame is unaffected
	msg = e.DecodeFrame(frame.CANFrame{ID: 0x18FF0000})
	assert.Equal(StatusSuccess, msg.Status)

	stats := e.Stats()
	assert.Equal(uint64(2), stats.Total)
	assert.Equal(uint64(1), stats.Errors)
	assert.Equal(uint64(1), stats.Decoded)
}

type nilCatalog struct{}

func (nilCatalog) Lookup(uint32) (*catalog.PGN, bool) { return nil, true }

func Test_Engine_NilDefinition(t *testing.T) {
	assert := assert.New(t)

	e := NewEngine(nilCatalog{})
	msg := e.DecodeFrame(eec1Frame())

	assert.Equal(StatusError, msg.Status)
	assert.ErrorIs(msg.Err, ErrNilDefinition)
	assert.Equal(uint64(1), e.Stats().Errors)
}

type recordingDetector struct {
	names []string
}

func (r *recordingDetector) Evaluate(name string, _ float64) (anomaly.Result, bool) {
	r.names = append(r.names, name)
	return anomaly.Result{Trend: anomaly.TrendStable}, true
}

func Test_Engine_Collaborators(t *testing.T) {
	assert := assert.New(t)

	detector := &recordingDetector{}
	e := NewEngine(catalog.Default(),
		WithAlertEvaluator(alert.NewDefaultEvaluator()),
		WithAnomalyDetector(detector),
	)

	msg := e.DecodeFrame(eec1Frame())
	require.Equal(t, StatusSuccess, msg.Status)

	speed := msg.SPNs[3]
	require.NotNil(t, speed.Alert)
	assert.Equal(alert.ColorGreen, speed.Alert.Color)
	require.NotNil(t, speed.Anomaly)
	assert.Equal(anomaly.TrendStable, speed.Anomaly.Trend)

	// unmonitored parameters carry no alert
	assert.Nil(msg.SPNs[0].Alert)

	assert.Len(detector.names, 7)
}

func Test_Engine_TruncatedSkipsCollaborators(t *testing.T) {
	detector := &recordingDetector{}
	e := NewEngine(testCatalog(), WithAnomalyDetector(detector))

	e.DecodeFrame(frame.CANFrame{ID: 0x18FF1000})

	// only the head SPN is complete
	assert.Equal(t, []string{"Head"}, detector.names)
}

func Test_Engine_Idempotent(t *testing.T) {
	assert := assert.New(t)

	e := NewEngine(catalog.Default())
	first := e.DecodeFrame(eec1Frame())
	second := e.DecodeFrame(eec1Frame())

	assert.Equal(first, second)
	assert.Equal(uint64(2), e.Stats().Total)
}

func Test_Engine_RecordFailure(t *testing.T) {
	assert := assert.New(t)

	e := NewEngine(catalog.Default())
	cause := errors.New("bad row")
	msg := e.RecordFailure("row 12", time.Time{}, cause)

	assert.Equal(StatusError, msg.Status)
	assert.Equal("row 12", msg.Source)
	assert.ErrorIs(msg.Err, cause)

	stats := e.Stats()
	assert.Equal(uint64(1), stats.Total)
	assert.Equal(uint64(1), stats.Errors)
}

func Test_Engine_ResetAndTake(t *testing.T) {
	assert := assert.New(t)

	e := NewEngine(catalog.Default())
	e.DecodeFrame(frame.CANFrame{ID: 0x18ABCD00})

	taken := e.TakeStats()
	assert.Equal(uint64(1), taken.Unknown)
	assert.Zero(e.Stats().Total)

	e.DecodeFrame(eec1Frame())
	e.ResetStats()
	assert.Zero(e.Stats().Total)
	assert.Empty(e.Stats().UnknownPGNs)
}

func Test_SharedStatistics(t *testing.T) {
	assert := assert.New(t)

	shared := NewSharedStatistics()

	wg := sync.WaitGroup{}
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			e := NewEngine(catalog.Default())
			for range 100 {
				e.DecodeFrame(eec1Frame())
				e.DecodeFrame(frame.CANFrame{ID: uint32(0x18AB0000 | i<<8)})
			}
			shared.Merge(e.TakeStats())
		}()
	}
	wg.Wait()

	snap := shared.Snapshot()
	assert.Equal(uint64(800), snap.Total)
	assert.Equal(uint64(400), snap.Decoded)
	assert.Equal(uint64(400), snap.Unknown)
	assert.Equal([]string{"0xAB00", "0xAB01", "0xAB02", "0xAB03"}, snap.UnknownPGNsHex())

	shared.Reset()
	assert.Zero(shared.Snapshot().Total)
}
