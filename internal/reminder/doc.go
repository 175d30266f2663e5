// Package reminder holds the pure scheduling math: fire instants for periodic
// event reminders, birthday rollover, and the keys and payloads jobs carry.
//
// Nothing here reads the clock or touches timers.
package reminder
