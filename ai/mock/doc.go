// Package mock provides test doubles for the ai package interfaces.
//
// The mocks use function fields for behavior injection and track call counts
// for assertion. Constructors return concrete types so tests can reach the
// injection points directly.
package mock
