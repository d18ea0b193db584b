/*
Vsopd starts a vsopd server and begins listening for new connections.

Usage:

	vsopd [flags]
	vsopd [flags] -l [[ADDRESS]:PORT]

Once started, the vsopd server listens for HTTP requests and responds to them
using REST protocol: clients submit VSOP source to be run through the same
four-pass semantic analyzer as vsopc -c, and retrieve the recorded results
later. By default, it listens on localhost:8080. This can be changed with the
--listen/-l flag (or config via environment var). The flag argument must be
either a full address with port, such as "192.168.0.2:6001", or just the IP
address preceeded by a colon, such as ":6001".

If a JWT token secret is not given, one will be automatically generated and
seeded from crypto/rand. As a consequence, in this mode of operation all
tokens are rendered invalid as soon as the server shuts down. This is
suitable for testing, but must be given via either CLI flags or environment
variable if running in production.

The flags are:

	-v, --version
		Give the current version of the vsopd server and then exit.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, will default to the value of environment
		variable VSOPD_LISTEN_ADDRESS, and if that is not given, will
		default to localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens. If there are less
		than 32 bytes in the secret, it will be repeated until it is. The
		maximum size is 64 bytes. If not given, will default to the value
		of environment variable VSOPD_TOKEN_SECRET. If no secret is
		specified or an empty secret is given, a random secret will be
		automatically generated. Note that any tokens issued with a random
		secret will become invalid as soon as the server shuts down.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of the
		following: inmem, sqlite. inmem has no further params. sqlite needs
		the path to the data directory, such as sqlite:path/to/db_dir. If
		not given, will default to the value of environment variable
		VSOPD_DATABASE. If no DB driver is specified or an empty one is
		given, an in-memory database is automatically selected.
*/
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dekarrin/vsopc/internal/version"
	"github.com/dekarrin/vsopc/server"
	"github.com/dekarrin/vsopc/server/dao"
	"github.com/dekarrin/vsopc/server/serr"
)

const (
	EnvListen = "VSOPD_LISTEN_ADDRESS"
	EnvSecret = "VSOPD_TOKEN_SECRET"
	EnvDB     = "VSOPD_DATABASE"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of the vsopd server and then exit.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret  = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagDB      = pflag.String("db", "", "Use the given DB connection string.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (vsopc v%s)\n", version.ServerCurrent, version.Current)
		return
	}

	if len(pflag.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	addr, port, err := resolveListenAddr()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err.Error())
		os.Exit(1)
	}

	db, err := resolveDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err.Error())
		os.Exit(1)
	}

	tokSecret := resolveSecret()

	cfg := server.Config{TokenSecret: tokSecret, DB: db}
	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err.Error())
	}
	defer srv.Close()
	log.Printf("DEBUG Server initialized")

	// immediately create the admin user so we have someone we can log in as.
	_, err = srv.CreateUser(context.Background(), "admin", "password", "bogus@example.com", dao.Admin)
	if err != nil && !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("ERROR could not create initial admin user: %v", err)
		os.Exit(2)
	}
	if err == nil {
		log.Printf("INFO  Added initial admin user with password 'password'...")
	}

	log.Printf("INFO  Starting vsopd server %s...", version.ServerCurrent)
	if err := srv.ServeForever(addr, port); err != nil {
		log.Fatalf("FATAL server exited: %s", err.Error())
	}
}

func resolveListenAddr() (addr string, port int, err error) {
	listenAddr := os.Getenv(EnvListen)
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr == "" {
		return "localhost", 8080, nil
	}

	bindParts := strings.SplitN(listenAddr, ":", 2)
	if len(bindParts) != 2 {
		return "", 0, fmt.Errorf("listen address is not in ADDRESS:PORT or :PORT format")
	}

	port, err = strconv.Atoi(bindParts[1])
	if err != nil {
		return "", 0, fmt.Errorf("%q is not a valid port number", bindParts[1])
	}
	return bindParts[0], port, nil
}

func resolveDB() (server.Database, error) {
	dbConnStr := os.Getenv(EnvDB)
	if pflag.Lookup("db").Changed {
		dbConnStr = *flagDB
	}
	if dbConnStr == "" {
		return server.Database{Type: server.DatabaseInMemory}, nil
	}

	db, err := server.ParseDBConnString(dbConnStr)
	if err != nil {
		return server.Database{}, err
	}
	if db.Type == server.DatabaseSQLite {
		if err := os.MkdirAll(db.DataDir, 0770); err != nil {
			return server.Database{}, fmt.Errorf("could not build data directory: %w", err)
		}
	}
	return db, nil
}

func resolveSecret() []byte {
	tokSecStr := os.Getenv(EnvSecret)
	if pflag.Lookup("secret").Changed {
		tokSecStr = *flagSecret
	}

	if tokSecStr == "" {
		tokSecret := make([]byte, server.MaxSecretSize)
		if _, err := rand.Read(tokSecret); err != nil {
			fmt.Fprintf(os.Stderr, "Could not generate token secret: %s\n", err.Error())
			os.Exit(1)
		}
		log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
		return tokSecret
	}

	tokSecret := []byte(tokSecStr)
	for len(tokSecret) < server.MinSecretSize {
		doubled := make([]byte, len(tokSecret)*2)
		copy(doubled, tokSecret)
		copy(doubled[len(tokSecret):], tokSecret)
		tokSecret = doubled
	}
	if len(tokSecret) > server.MaxSecretSize {
		fmt.Fprintf(os.Stderr, "Token secret is %d bytes, but it must be <= %d bytes\n", len(tokSecret), server.MaxSecretSize)
		os.Exit(1)
	}
	return tokSecret
}
