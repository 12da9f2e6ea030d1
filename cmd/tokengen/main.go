// Package main provides a CLI tool for generating issuer tokens for the
// credo issuance API. Without -key or JWT_SIGNING_KEY it signs with the
// dev key, which only works against a server running with the same default.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"

	"credo/internal/issuertoken"
	"credo/internal/platform/config"
	id "credo/pkg/domain"
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in,omitempty"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage,omitempty"`
}

func main() {
	issuerCmd := flag.NewFlagSet("issuer", flag.ExitOnError)
	inspectCmd := flag.NewFlagSet("inspect", flag.ExitOnError)

	issuerAccount := issuerCmd.String("account", "", "Issuer account (0x address)")
	issuerPrivateKey := issuerCmd.String("private-key", "", "Derive the account from this hex private key instead of -account")
	issuerTTL := issuerCmd.Duration("ttl", issuertoken.DefaultTTL, "Token time-to-live")
	issuerKey := issuerCmd.String("key", "", "Signing key (defaults to JWT_SIGNING_KEY, then the dev key)")
	issuerJSON := issuerCmd.Bool("json", false, "Output as JSON")

	inspectKey := inspectCmd.String("key", "", "Signing key (defaults to JWT_SIGNING_KEY, then the dev key)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "issuer":
		_ = issuerCmd.Parse(os.Args[2:])
		generateIssuerToken(*issuerAccount, *issuerPrivateKey, signingKey(*issuerKey), *issuerTTL, *issuerJSON)
	case "inspect":
		_ = inspectCmd.Parse(os.Args[2:])
		if inspectCmd.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "inspect expects exactly one token argument")
			os.Exit(1)
		}
		inspectToken(inspectCmd.Arg(0), signingKey(*inspectKey))
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate issuer tokens for the credo issuance API

Usage:
  tokengen <command> [flags]

Commands:
  issuer    Generate a bearer token for an issuer account
  inspect   Validate a token and print its claims

Examples:
  tokengen issuer -account 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed
  tokengen issuer -private-key $ISSUER_PRIVATE_KEY -ttl 1h -json
  tokengen inspect <token>`)
}

func signingKey(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("JWT_SIGNING_KEY"); env != "" {
		return env
	}
	return config.DevSigningKey
}

func resolveAccount(account, privateKey string) (id.Account, error) {
	if privateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKey), "0x"))
		if err != nil {
			return "", fmt.Errorf("invalid private key: %w", err)
		}
		return id.Account(crypto.PubkeyToAddress(key.PublicKey).Hex()), nil
	}
	if account == "" {
		return "", fmt.Errorf("one of -account or -private-key is required")
	}
	return id.ParseAccount(account)
}

func generateIssuerToken(account, privateKey, key string, ttl time.Duration, jsonOutput bool) {
	acct, err := resolveAccount(account, privateKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	svc := issuertoken.NewService(key, issuertoken.DefaultIssuer, issuertoken.DefaultAudience, ttl)
	token, jti, err := svc.Generate(context.Background(), acct)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "issuer_token",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"account": acct.String(),
				"jti":     jti,
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}

	fmt.Println("Issuer Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Account:    %s\n", acct)
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Printf("JTI:        %s\n", jti)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" -d '{...}' http://localhost:8080/v1/credentials")
}

func inspectToken(token, key string) {
	svc := issuertoken.NewService(key, issuertoken.DefaultIssuer, issuertoken.DefaultAudience, 0)
	claims, err := svc.ValidateToken(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Token rejected: %v\n", err)
		os.Exit(1)
	}
	printJSON(tokenOutput{
		Token: token,
		Type:  "issuer_token",
		Claims: map[string]any{
			"account":    claims.Account,
			"jti":        claims.ID,
			"issued_at":  formatDate(claims.IssuedAt),
			"expires_at": formatDate(claims.ExpiresAt),
		},
	})
}

func formatDate(d *jwt.NumericDate) string {
	if d == nil {
		return ""
	}
	return d.Time.UTC().Format(time.RFC3339)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
