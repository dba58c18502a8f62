package catalog

import "sync"

const undefinedPGNName = "Definition not Present in SAE J1939 Standard"
const noTorqueLimitPGNName = "A value of 0xFF00 to 0xFFFF indicates that no transmission torque limit is desired"

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog of the BEML BD-155 machine.
// The bundled table defines some PGNs more than once,
// they are resolved with the [LastWins] policy.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = NewBuilder(LastWins).Add(DefaultDefinitions()...).MustBuild()
	})
	return defaultCatalog
}

// DefaultDefinitions returns the raw definitions of the bundled table,
// duplicates included, in declaration order.
func DefaultDefinitions() []PGN {
	return []PGN{
		{
			PGN:  65257,
			Name: "Fuel Consumption (Liquid) - LFC",
			SPNs: []SPN{
				scaled(byteSPN(182, "Trip Fuel", 1, 4), 0.5, 0),
				scaled(byteSPN(250, "Total Fuel Used", 5, 4), 0.5, 0),
			},
		},
		{
			PGN:  65271,
			Name: "Vehicle Electrical Power - VEP",
			SPNs: []SPN{
				byteSPN(114, "Net Battery Current", 1, 1),
				byteSPN(115, "Alternator Current", 2, 1),
				byteSPN(167, "Battery Voltage", 3, 2),
				byteSPN(168, "Battery Potential / Voltage", 5, 2),
				byteSPN(158, "Battery Current", 7, 2),
			},
		},
		{
			PGN:  61441,
			Name: "Electronic Brake Controller 1 - EBC1",
			SPNs: []SPN{
				bitSPN(561, "ASR Engine Control Active", 1, 2),
				bitSPN(562, "ASR Brake Control Active", 3, 2),
				bitSPN(563, "Anti-Lock Braking (ABS) Active", 5, 2),
				bitSPN(1121, "EBS Brake Switch", 7, 2),
				byteSPN(521, "Brake Pedal Position", 2, 1),
				bitSPN(575, "ABS Off-road Switch", 17, 2),
				bitSPN(576, "ASR Off-road Switch", 19, 2),
				bitSPN(577, "ASR Hill Holder Switch", 21, 2),
				bitSPN(1238, "Traction Control Override Switch", 23, 2),
				bitSPN(972, "Accelerator Interlock Switch", 25, 2),
				bitSPN(971, "Engine Derate Switch", 27, 2),
				bitSPN(970, "Auxiliary Engine Shutdown Switch", 29, 2),
				bitSPN(969, "Remote Accelerator Enable Switch", 31, 2),
				byteSPN(973, "Engine Retarder Selection", 5, 1),
				bitSPN(1243, "ABS Fully Operational", 41, 2),
				bitSPN(1439, "EBS Red Warning Signal", 43, 2),
				bitSPN(1438, "ABS/EBS Amber Warning Signal", 45, 2),
				bitSPN(1793, "ATC/ASR Information Signal", 47, 2),
				byteSPN(1481, "Source Address of Controlling Device for Brake Control", 7, 1),
				bitSPN(1836, "Trailer ABS Status", 61, 2),
				bitSPN(1792, "Tractor-Mounted Trailer ABS Warning Signal", 63, 2),
			},
		},
		{
			PGN:  65266,
			Name: "Fuel Economy (Liquid) - LFE",
			SPNs: []SPN{
				byteSPN(183, "Fuel Rate", 1, 2),
				byteSPN(184, "Instantaneous Fuel Economy1", 3, 2),
				byteSPN(185, "Average Fuel Economy", 5, 2),
				byteSPN(51, "Throttle Position", 7, 2),
			},
		},
		{
			PGN:  65247,
			Name: "Electronic Engine Controller 3 - EEC3",
			SPNs: []SPN{
				byteSPN(514, "Engine Torque Mode", 1, 1),
				byteSPN(515, "Driver's Demand Engine - Percent Torque", 2, 2),
			},
		},
		{
			PGN:  61444,
			Name: "Electronic Engine Controller 1 - EEC1",
			SPNs: []SPN{
				byteSPN(899, "Engine Torque Mode", 1, 4),
				byteSPN(512, "Driver's Demand Engine - Percent Torque", 2, 1),
				byteSPN(513, "Actual Engine - Percent Torque", 3, 1),
				byteSPN(190, "Engine Speed", 4, 2),
				byteSPN(1483, "Source Address of Controlling Device for Engine Control", 6, 1),
				bitSPN(1675, "Engine Starter Mode", 7, 4),
			},
		},
		{
			PGN:  65270,
			Name: "Inlet/Exhaust Conditions 1 - IC1",
			SPNs: []SPN{
				byteSPN(81, "Particulate Trap Inlet Pressure", 1, 1),
				byteSPN(102, "Boost Pressure", 2, 1),
				byteSPN(105, "Intake Manifold 1 Temperature", 3, 1),
				byteSPN(106, "Air Inlet Pressure", 4, 1),
				byteSPN(107, "Air Filter 1 Differential Pressure", 5, 1),
				byteSPN(173, "Exhaust Gas Temperature", 6, 2),
				byteSPN(112, "Coolant Filter Differential Pressure", 8, 1),
			},
		},
		{
			PGN:  65253,
			Name: "Engine Hours, Revolutions - HOURS",
			SPNs: []SPN{
				byteSPN(247, "Total Engine Hours", 1, 4),
				byteSPN(249, "Total Engine Revolutions", 5, 4),
			},
		},
		{
			PGN:  65271,
			Name: "Vehicle Electrical Power - VEP",
			SPNs: []SPN{
				byteSPN(114, "Net Battery Current", 1, 1),
				byteSPN(115, "Alternator Current", 2, 1),
				byteSPN(167, "Battery Voltage", 3, 2),
				byteSPN(168, "Battery Potential / Voltage", 5, 2),
				byteSPN(158, "Battery Current", 7, 2),
			},
		},
		{
			PGN:  65128,
			Name: "Vehicle Fluids - VF",
			SPNs: []SPN{
				byteSPN(1638, "Hydraulic Temperature", 1, 1),
			},
		},
		{
			PGN:  65108,
			Name: "Engine Continious Torque / Speed Limit - ECT/RPM",
			SPNs: []SPN{
				byteSPN(1768, "Low Limit Threshhold for Maximum RPM from Engine", 1, 1),
				byteSPN(1769, "High Limit Threshhold for Minimum Continuous Engine RPM", 2, 1),
				byteSPN(1770, "Low Limit Threshold for Maximum Torque from Engine", 3, 1),
				byteSPN(1771, "High Limit Threshhold for Minimum Continuous Torque from Engine", 4, 1),
				byteSPN(1772, "Maximum Continuous Engine RPM", 5, 1),
				byteSPN(1773, "Minimum Continuous Engine RPM", 6, 1),
				byteSPN(1774, "Maximum Continuous Engine Torque", 7, 1),
				byteSPN(1775, "Minimum Continuous Engine Torque", 8, 1),
			},
		},
		{
			PGN:  65262,
			Name: "Engine Temperature 1 - ET1",
			SPNs: []SPN{
				byteSPN(110, "Engine Coolant Temperature", 1, 1),
				byteSPN(174, "Fuel Temperature", 2, 1),
				byteSPN(175, "Engine Oil Temperature 1", 3, 2),
				byteSPN(176, "Turbo Oil Temperature", 5, 2),
				byteSPN(52, "Engine Intercooler Temperature", 7, 1),
				byteSPN(1134, "Engine Intercooler Thermostat Opening", 8, 1),
			},
		},
		{
			PGN:  65276,
			Name: "Dash Display",
			SPNs: []SPN{
				byteSPN(80, "Washer Fluid Level", 1, 1),
				byteSPN(96, "Fluid Level", 2, 1),
				byteSPN(95, "Fuel Filter Differential Pressure", 3, 1),
				byteSPN(99, "Engine Oil Filter Differential Pressure", 4, 1),
				byteSPN(169, "Cargo Ambient Temperature", 5, 2),
			},
		},
		{
			PGN:  65263,
			Name: "Engine Fluid Level/Pressure 1 - EFL/P1",
			SPNs: []SPN{
				byteSPN(94, "Fuel Delivery Pressure", 1, 1),
				byteSPN(22, "Extended Crankcase Blow-by Pressure", 2, 1),
				byteSPN(98, "Engine Oil Level", 3, 1),
				byteSPN(100, "Engine Oil Pressure", 4, 1),
				byteSPN(101, "Crakecase Pressure", 5, 2),
				byteSPN(109, "Coolant Pressure", 7, 1),
				byteSPN(111, "Coolant Level", 8, 1),
			},
		},
		{
			PGN:  61441,
			Name: "Electronic Brake Controller 1 - EBC1",
			SPNs: []SPN{
				bitSPN(561, "ASR Engine Control", 1, 2),
				bitSPN(562, "ASR Brake Control", 3, 2),
				bitSPN(563, "Anti-Lock Braking (ABS)", 5, 2),
				bitSPN(1121, "EBS Brake Switch", 7, 2),
				bitSPN(521, "Brake Pedal Position", 2, 1),
				bitSPN(575, "ABS Off-road Switch", 5, 2),
				bitSPN(576, "ASR Engine Control", 1, 2),
				bitSPN(577, "ASR Brake Control", 3, 2),
				bitSPN(1238, "ASR Clutch Control", 5, 2),
				bitSPN(972, "ASR Engine Control", 1, 2),
				bitSPN(971, "ASR Brake Control", 3, 2),
				bitSPN(970, "ASR Clutch Control", 5, 2),
				bitSPN(969, "ASR Engine Control", 1, 2),
				bitSPN(973, "ASR Brake Control", 3, 2),
				bitSPN(1243, "ASR Clutch Control", 5, 2),
				bitSPN(1439, "ASR Engine Control", 1, 2),
				bitSPN(1438, "ASR Brake Control", 3, 2),
				bitSPN(1793, "ASR Clutch Control", 5, 2),
				bitSPN(1481, "ASR Engine Control", 1, 2),
				bitSPN(1836, "ASR Brake Control", 3, 2),
				bitSPN(1792, "ASR Clutch Control", 5, 2),
			},
		},
		{
			PGN:  0,
			Name: "Torque/Speed Control 1 - TSC1",
			SPNs: []SPN{
				bitSPN(695, "Override Control Mode", 1, 2),
				bitSPN(696, "Requested Speed Control Conditions", 3, 2),
				bitSPN(897, "Override Control Mode Priority", 5, 2),
				bitSPN(898, "Requested Speed/Speed Limit", 2, 2),
				bitSPN(518, "Requested Torque/Torque Limit", 4, 1),
			},
		},
		{
			PGN:  61444,
			Name: "Electronic Engine Controller 1 - EEC1",
			SPNs: []SPN{
				bitSPN(899, "Engine Torque Mode", 1, 4),
				byteSPN(512, "Driver's Demand Engine - Percent Torque", 2, 1),
				byteSPN(513, "Actual Engine - Percent Torque", 3, 1),
				scaled(byteSPN(190, "Engine Speed", 4, 2), 0.125, 0),
				byteSPN(1483, "Source Address of Controlling Device for Engine Control", 6, 1),
				bitSPN(1675, "Engine Starter Mode", 49, 4),
				byteSPN(2432, "Engine Demand - Percent Torque", 8, 1),
			},
		},
		{
			PGN:  65262,
			Name: "Engine Temperature 1 - ET1",
			SPNs: []SPN{
				byteSPN(110, "Engine Coolant Temperature", 1, 1),
				byteSPN(174, "Fuel Temperature", 2, 1),
				byteSPN(175, "Engine Oil Temperature", 3, 2),
			},
		},
		{
			PGN:  65263,
			Name: "Engine Fluid Level/Pressure 1 - EFL/P1",
			SPNs: []SPN{
				scaled(byteSPN(94, "Fuel Delivery Pressure", 1, 1), 4, 0),
				scaled(byteSPN(22, "Extended Crankcase Blow-by Pressure", 2, 1), 0.05, 0),
				scaled(byteSPN(98, "Engine Oil Level", 3, 1), 0.4, 0),
				scaled(byteSPN(100, "Engine Oil Pressure", 4, 1), 4, 0),
				scaled(byteSPN(101, "Crankcase Pressure", 5, 2), 0.03125, -250),
				scaled(byteSPN(109, "Coolant Pressure", 7, 1), 2, 0),
				scaled(byteSPN(111, "Coolant Level", 8, 1), 0.4, 0),
			},
		},
		{
			PGN:  65265,
			Name: "Cruise Control/Vehicle Speed - CCVS",
			SPNs: []SPN{
				bitSPN(595, "Cruise Control Active", 4, 2),
				bitSPN(596, "Cruise Control Enable Switch", 4, 2),
				bitSPN(597, "Brake Switch", 4, 2),
				bitSPN(598, "Clutch Switch", 4, 2),
				bitSPN(599, "Cruise Control Set Switch", 5, 2),
				bitSPN(600, "Cruise Control Coast Switch", 5, 2),
				bitSPN(601, "Cruise Control Resume Switch", 5, 2),
				bitSPN(602, "Cruise Control Accelerate Switch", 5, 2),
				byteSPN(86, "Cruise Control Set Speed", 6, 1),
				bitSPN(976, "PTO State", 7, 5),
				bitSPN(527, "Cruise Control States", 7, 3),
				bitSPN(968, "Engine Idle Increment Switch", 8, 2),
				bitSPN(967, "Engine Idle Decrement Switch", 8, 2),
				bitSPN(966, "Engine Test Mode Switch", 8, 2),
				bitSPN(1237, "Engine Shutdown Override Switch", 8, 2),
			},
		},
		{
			PGN:  65269,
			Name: "Ambient Conditions - AMB",
			SPNs: []SPN{
				byteSPN(108, "Barometric Pressure", 1, 1),
				byteSPN(170, "Cab Interior Temperature", 2, 2),
				byteSPN(171, "Ambient Air Temperature", 4, 2),
			},
		},
		{
			PGN:  65270,
			Name: "Inlet/Exhaust Conditions 1 - IC1",
			SPNs: []SPN{
				byteSPN(102, "Boost Pressure", 2, 1),
				byteSPN(105, "Intake Manifold 1 Temperature", 3, 1),
				byteSPN(106, "Air Inlet Pressure", 4, 1),
				byteSPN(107, "Air Filter 1 Differential Pressure", 5, 1),
				byteSPN(173, "Exhaust Gas Temperature", 6, 2),
			},
		},
		{
			PGN:  65271,
			Name: "Vehicle Electrical Power - VEP",
			SPNs: []SPN{
				byteSPN(114, "Net Battery Current", 1, 1),
				byteSPN(115, "Alternator Current", 2, 1),
				byteSPN(168, "Battery Potential / Voltage", 5, 2),
			},
		},
		{
			PGN:  65272,
			Name: "Transmission Fluids - TF",
			SPNs: []SPN{
				byteSPN(124, "Transmission Oil Level", 2, 1),
				byteSPN(127, "Transmission Oil Pressure", 4, 1),
				byteSPN(177, "Transmission Oil Temperature", 5, 2),
			},
		},
		{
			PGN:  65170,
			Name: "Engine Information - EI",
			SPNs: []SPN{
				byteSPN(1208, "Pre-filter Oil Pressurer", 1, 1),
				byteSPN(1209, "Exhaust Gas Pressure", 2, 2),
				byteSPN(1210, "Fuel Rack Position", 4, 1),
				byteSPN(1241, "Mass Flow (Gaseous)", 5, 2),
				byteSPN(1242, "Instantaneous Estimated Brake Power", 7, 2),
			},
		},
		{PGN: 60415, Name: undefinedPGNName},
		{PGN: 60671, Name: undefinedPGNName},
		{PGN: 59647, Name: undefinedPGNName},
		{PGN: 65226, Name: undefinedPGNName},
		{PGN: 65284, Name: noTorqueLimitPGNName},
		{PGN: 65285, Name: noTorqueLimitPGNName},
		{PGN: 65282, Name: noTorqueLimitPGNName},
		{PGN: 65281, Name: noTorqueLimitPGNName},
		{PGN: 65280, Name: noTorqueLimitPGNName},
		{PGN: 65283, Name: noTorqueLimitPGNName},
	}
}
