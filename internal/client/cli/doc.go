// Package cli implements qrctl, the command-line client for minting and
// checking QR envelopes.
//
// Commands run against an in-process codec built from local keys unless
// --server names a running qrcodec gRPC endpoint. Keys come from flags, the
// QR_* environment variables or, with --prompt-keys, from the terminal.
package cli
