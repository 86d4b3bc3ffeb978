// Package door implements the door cycle state machine.
//
// A door moves through a strict cycle:
//
//	Idle → Opening → Holding → Closing → Cooldown → Idle
//
// RequestOpen is only honoured in Idle; anywhere else it is a silent no-op,
// which is what debounces repeated commands. Tick advances the timed
// transitions and drives the actuator exactly once per boundary:
// open on Opening→Holding, closed on Closing→Cooldown.
//
// Boundary events ("opening", "closed", "idle") are handed to a Publisher.
// Holding and Cooldown entries publish nothing.
//
// # Timing
//
// Tick takes the current time as an argument. Callers pass time.Now(),
// whose monotonic reading makes elapsed-time math immune to wall-clock
// adjustments; tests pass synthetic times.
//
// Holding compares elapsed time against the current hold time on every
// tick. A new hold time set mid-hold applies to that hold and to later
// cycles.
//
// # Usage
//
//	m, err := door.NewMachine(door.Config{
//	    OpenDuration: 1500 * time.Millisecond,
//	    Cooldown:     2500 * time.Millisecond,
//	    Positions:    door.Positions{Closed: 0, Open: 90},
//	}, servo, publisher)
//
//	m.RequestOpen(time.Now())
//	for range ticker.C {
//	    m.Tick(time.Now())
//	}
package door
