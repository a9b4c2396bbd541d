// Package sentinel provides Error, a string error type that can be declared
// as a const. Every portshim sentinel error is declared this way so callers
// can rely on errors.Is without the value ever being reassigned.
package sentinel
