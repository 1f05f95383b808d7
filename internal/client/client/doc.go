// Package client gives the CLI one interface over two ways of reaching the
// codec: a remote server over gRPC (GRPCClient) and an in-process codec
// built from local keys (LocalClient).
//
// Remote failures are mapped back to the sentinel errors in package common,
// so callers match them with errors.Is exactly as they would locally.
// ErrUnavailable reports a server that cannot be reached.
package client
