package bridge

import "fmt"

var ErrTransportNotFound = fmt.Errorf("bridge: no transport registered for uri")

var transports = []matched{}

type matched struct {
	matcher     Matcher
	constructor TransportConstructor
}

type TransportConstructor func(uri string) (Transport, error)

type Matcher func(uri string) bool

// Register makes a transport available to Open. It is meant to be called from
// init functions of transport packages.
func Register(constructor TransportConstructor, matcher Matcher) {
	transports = append(transports, matched{
		constructor: constructor,
		matcher:     matcher,
	})
}

// Open returns a transport from the first registered constructor whose matcher
// accepts uri.
func Open(uri string) (Transport, error) {
	for _, t := range transports {
		if !t.matcher(uri) {
			continue
		}
		return t.constructor(uri)
	}
	return nil, fmt.Errorf("%w: %s", ErrTransportNotFound, uri)
}
