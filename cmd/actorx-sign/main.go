// Command actorx-sign splices a signed metadata envelope into a compiled
// WASM actor module in place, the Go equivalent of the original signing
// CLI's -i/-k/-a/-t flag surface.
package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/TwiN/go-color"
	"github.com/urfave/cli/v2"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/sign"
)

func main() {
	app := &cli.App{
		Name:  "actorx-sign",
		Usage: "sign a compiled WASM actor module with its identity and access claims",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Aliases: []string{"i"}, Required: true, Usage: "path to a file containing the actor id (or #base64 literal)"},
			&cli.StringFlag{Name: "key", Aliases: []string{"k"}, Required: true, Usage: "path to the signer's secp256k1 private key"},
			&cli.StringSliceFlag{Name: "access", Aliases: []string{"a"}, Usage: "actor id this module is permitted to invoke (repeatable, or #base64 literal)"},
			&cli.StringFlag{Name: "token-id", Aliases: []string{"t"}, Usage: "160-bit hex token id to associate with this module"},
		},
		Args:      true,
		ArgsUsage: "<wasm-file>",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.Ize(color.Red, err.Error()))
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	wasmPath := c.Args().First()
	if wasmPath == "" {
		return cli.Exit("missing <wasm-file> argument", 1)
	}

	wasm, err := os.ReadFile(wasmPath)
	if err != nil {
		return fmt.Errorf("read wasm file: %w", err)
	}

	id, err := resolveHandle(c.String("id"))
	if err != nil {
		return fmt.Errorf("resolve id: %w", err)
	}

	keyBytes, err := os.ReadFile(c.String("key"))
	if err != nil {
		return fmt.Errorf("read key file: %w", err)
	}
	keyPair, err := sign.ParsePrivateKey(keyBytes)
	if err != nil {
		return fmt.Errorf("parse key: %w", err)
	}

	claims, err := buildClaims(c)
	if err != nil {
		return err
	}

	metadata := actorx.Metadata{
		Id:     id,
		Claims: claims,
	}

	signed, err := sign.Sign(wasm, metadata, keyPair.Private)
	if err != nil {
		return fmt.Errorf("sign module: %w", err)
	}

	if err := os.WriteFile(wasmPath, signed, 0o644); err != nil {
		return fmt.Errorf("write signed module: %w", err)
	}

	fmt.Println(color.Ize(color.Green, fmt.Sprintf("signed %s for actor %s", wasmPath, actorx.ActorId(id).String())))
	return nil
}

func buildClaims(c *cli.Context) ([]actorx.Claim, error) {
	var claims []actorx.Claim
	for _, access := range c.StringSlice("access") {
		target := []byte(access)
		if strings.HasPrefix(access, "#") {
			decoded, err := base64.StdEncoding.DecodeString(access[1:])
			if err != nil {
				return nil, fmt.Errorf("resolve access claim %q: %w", access, err)
			}
			target = decoded
		}
		claims = append(claims, actorx.Claim{Kind: actorx.ClaimActorAccess, Access: actorx.ActorId(target)})
	}

	if tokenID := c.String("token-id"); tokenID != "" {
		var token [20]byte
		raw, err := decodeHex(tokenID)
		if err != nil {
			return nil, fmt.Errorf("parse token id: %w", err)
		}
		if len(raw) != 20 {
			return nil, fmt.Errorf("token id must be 20 bytes, got %d", len(raw))
		}
		copy(token[:], raw)
		claims = append(claims, actorx.Claim{Kind: actorx.ClaimTokenId, TokenId: token})
	}
	return claims, nil
}

// resolveHandle reads input as a file path unless it starts with '#', in
// which case the remainder is treated as base64-encoded bytes directly,
// matching the original CLI's handle_base64 convention.
func resolveHandle(input string) ([]byte, error) {
	if strings.HasPrefix(input, "#") {
		return base64.StdEncoding.DecodeString(input[1:])
	}
	return os.ReadFile(input)
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}
