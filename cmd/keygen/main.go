package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

func main() {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		fmt.Fprintf(os.Stderr, "generate key: %v\n", err)
		os.Exit(1)
	}
	key := base64.RawURLEncoding.EncodeToString(buf)

	fmt.Printf("API Key: %s\n", key)
	fmt.Println("\nAdd this to your config.yaml:")
	fmt.Println("  server:")
	fmt.Printf("    api_key: \"%s\"\n", key)
	fmt.Println("\nOr set it in the environment:")
	fmt.Printf("  PLUME_SERVER__API_KEY=%s\n", key)
}
