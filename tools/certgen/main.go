// Package main generates the TLS files for serving FlightDesk over HTTPS in
// development: a local CA (reused when it already exists) and a server
// certificate signed by it, written under the "certs" directory.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/FlightDesk/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	fs.SetOutput(out)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma-separated server host names and IPs")
	days := fs.Int("days", 365, "server certificate validity in days")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *days <= 0 {
		return errors.New("days must be positive")
	}

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", *dir, err)
	}
	caCertPath, caKeyPath := filepath.Join(*dir, "ca.crt"), filepath.Join(*dir, "ca.key")

	// 1. Reuse the CA if there is one, so browsers that trust it keep doing so.
	if _, err := os.Stat(caCertPath); errors.Is(err, os.ErrNotExist) {
		certPEM, keyPEM, err := certgen.GenerateCA("FlightDesk Dev CA", 10*365*24*time.Hour)
		if err != nil {
			return err
		}
		if err := certgen.WriteFiles(caCertPath, caKeyPath, certPEM, keyPEM); err != nil {
			return err
		}
		fmt.Fprintf(out, "created CA %s\n", caCertPath)
	}
	caCert, caKey, err := certgen.LoadCACredentials(caCertPath, caKeyPath)
	if err != nil {
		return err
	}

	// 2. Issue the server certificate.
	var names []string
	for _, h := range strings.Split(*hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			names = append(names, h)
		}
	}
	certPEM, keyPEM, err := certgen.GenerateServerCertificate(names, time.Duration(*days)*24*time.Hour, caCert, caKey)
	if err != nil {
		return err
	}
	certPath, keyPath := filepath.Join(*dir, "server.crt"), filepath.Join(*dir, "server.key")
	if err := certgen.WriteFiles(certPath, keyPath, certPEM, keyPEM); err != nil {
		return err
	}
	fmt.Fprintf(out, "created server certificate %s for %s\n", certPath, strings.Join(names, ", "))
	return nil
}
