// Package clientip resolves the address of the client behind an HTTP request.
//
// By default only the TCP peer address is used. Deployments behind a reverse
// proxy list the headers that proxy sets, in priority order:
//
//	res := clientip.NewResolver(clientip.HeaderCFConnectingIP, clientip.HeaderXForwardedFor)
//	r.Use(res.Middleware)
//
// Comma separated header values are scanned left to right for the first
// valid address. Addresses are normalized with net.ParseIP, so
// "::ffff:192.0.2.1" and "192.0.2.1" resolve to the same key.
//
// Middleware stores the address in the request context; FromContext reads it
// back and LoggerExtractor adds it to log records as client_ip.
package clientip
