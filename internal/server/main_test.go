package server_test

import (
	"os"
	"testing"

	"github.com/emrgen/legaldoc/internal/tester"
)

func TestMain(m *testing.M) {
	tester.Setup()
	code := m.Run()

	os.Exit(code)
}
