// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package firestoretest runs the Firestore emulator for tests.
package firestoretest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"testing"
	"time"
)

// startupTimeout bounds how long the emulator may take to accept connections.
const startupTimeout = 90 * time.Second

func freePort() (int, error) {
	l, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv6loopback, Port: 0})
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func exited(cmd *exec.Cmd) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()
	return done
}

// Emulator points FIRESTORE_EMULATOR_HOST at a Firestore emulator for the
// duration of the test. An emulator already named by the environment is
// reused. Otherwise one is started with gcloud, and the test is skipped if
// that is not possible.
func Emulator(ctx context.Context, t *testing.T) {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") != "" {
		return
	}
	if _, err := exec.LookPath("gcloud"); err != nil {
		t.Skip("FIRESTORE_EMULATOR_HOST not set and gcloud not found")
	}
	port, err := freePort()
	if err != nil {
		t.Fatalf("freePort(): %v", err)
	}
	addr := fmt.Sprintf("localhost:%d", port)
	t.Logf("starting firestore emulator addr=%s", addr)
	cmd := exec.Command("gcloud", "emulators", "firestore", "start", "--host-port="+addr)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Skipf("starting firestore emulator: %v", err)
	}
	done := exited(cmd)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		req, _ := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+addr+"/shutdown", nil)
		if resp, err := http.DefaultClient.Do(req); err != nil {
			t.Logf("firestore emulator shutdown request: %v", err)
		} else {
			resp.Body.Close()
		}
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			cmd.Process.Kill()
		}
	})

	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	for {
		if c, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
			c.Close()
			break
		}
		select {
		case <-done:
			t.Skipf("firestore emulator exited: %s", cmd.ProcessState)
		case <-ctx.Done():
			t.Skipf("firestore emulator not ready: %v", ctx.Err())
		case <-time.After(300 * time.Millisecond):
		}
	}
	t.Setenv("FIRESTORE_EMULATOR_HOST", addr)
}
