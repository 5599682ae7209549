// Command playgate-keygen prints a fresh playback signing key pair and access-key
// secret as environment assignments for cmd/playgate-server.
//
// Run:
//
//	go run ./cmd/playgate-keygen -method es256 > .env.playgate
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/MrEthical07/playgate/internal/keys"
)

func main() {
	method := flag.String("method", "es256", "signing key type: es256 or ed25519")
	flag.Parse()

	if err := run(os.Stdout, *method); err != nil {
		fmt.Fprintf(os.Stderr, "playgate-keygen: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, method string) error {
	pair, err := keys.NewPair(method, nil)
	if err != nil {
		return err
	}
	secret, err := keys.NewSecret(nil)
	if err != nil {
		return err
	}

	priv, pub := pair.Base64()
	_, err = fmt.Fprintf(w, "SIGNING_METHOD=%s\nACCESS_CONTROL_PRIVATE_KEY=%s\nACCESS_CONTROL_PUBLIC_KEY=%s\nACCESS_KEY_SECRET=%s\n",
		method, priv, pub, secret)
	return err
}
