// Package actuator drives the door latch.
//
// Two drivers are provided:
//   - Servo: a hobby servo on a Linux sysfs PWM channel
//     (/sys/class/pwm/pwmchipN/pwmM), 50 Hz, pulse width interpolated
//     between a configurable minimum and maximum
//   - Simulated: an in-memory stand-in for development and tests
//
// Angles are clamped to 0-180°. Both drivers skip a write when asked for
// the angle they already hold, so callers may treat SetAngle as idempotent.
package actuator
