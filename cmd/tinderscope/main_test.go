package main

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMocks(t *testing.T) (written *[]byte, code *int) {
	t.Helper()
	var data []byte
	exit := -1
	osWriteFile = func(name string, b []byte, _ os.FileMode) error {
		assert.Equal(t, panicLogFile, name)
		data = b
		return nil
	}
	osExit = func(c int) { exit = c }
	t.Cleanup(func() {
		osWriteFile = os.WriteFile
		osExit = os.Exit
	})
	return &data, &exit
}

func TestHandlePanic(t *testing.T) {
	t.Run("writes the panic log", func(t *testing.T) {
		written, code := withMocks(t)
		func() {
			defer handlePanic()
			panic("selector exploded")
		}()
		require.NotNil(t, *written)
		assert.Contains(t, string(*written), "panic: selector exploded")
		assert.Contains(t, string(*written), "goroutine")
		assert.Equal(t, 2, *code)
	})

	t.Run("log write fails", func(t *testing.T) {
		_, code := withMocks(t)
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only") }
		func() {
			defer handlePanic()
			panic("boom")
		}()
		assert.Equal(t, 2, *code)
	})

	t.Run("no panic", func(t *testing.T) {
		written, code := withMocks(t)
		func() {
			defer handlePanic()
		}()
		assert.Nil(t, *written)
		assert.Equal(t, -1, *code)
	})
}
