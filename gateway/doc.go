// Package gateway runs one live session against an NMEA 2000 gateway.
//
// A Device owns a transport connection and the protocol parser for its
// byte stream. The receive loop feeds every transport block into the
// parser and delivers decoded messages and stream errors to the sinks
// supplied at construction; Send encodes typed messages back onto the
// bus.
//
// # Usage Example
//
//	conn, err := transport.OpenSerial(transport.SerialConfig{Device: "/dev/ttyUSB0"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dev, err := gateway.New(gateway.Config{
//	    Conn: conn,
//	    OnMessage: func(proto string, msgType byte, msg protocol.Message) {
//	        fmt.Println(msg)
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Blocks until the context ends or the link goes away.
//	if err := dev.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Routing
//
// Recoverable stream failures (bad checksums, unknown identifiers,
// layout mismatches) go to the OnError sink and never stop the session.
// Link-terminating failures end Run and are returned from it; an orderly
// shutdown (peer EOF, local Close, context cancellation) is not treated
// as a session failure.
//
// # Thread Safety
//
// Send may be called from any goroutine; sends are serialized on the
// connection. The sinks are invoked from the Run goroutine, one event at
// a time, in stream order.
package gateway
