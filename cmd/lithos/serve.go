package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"

	"git.home.luguber.info/inful/lithos/internal/server"
)

func runServe(ctx context.Context, port int, dir string) error {
	if dir == "" {
		paths, _, err := loadSite()
		if err != nil {
			return err
		}
		dir = paths.Public
	}
	if fi, err := os.Stat(dir); err != nil {
		return fmt.Errorf("serve directory: %w", err)
	} else if !fi.IsDir() {
		return fmt.Errorf("serve directory: %s is not a directory", dir)
	}
	return server.Static(ctx, dir, net.JoinHostPort("", strconv.Itoa(port)))
}
