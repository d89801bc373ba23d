package redis

import (
	"fmt"
	"os"
	"testing"

	"go-flowgate/internal/testutil"
)

func TestMain(m *testing.M) {
	code := m.Run()
	if err := testutil.TerminateRedis(); err != nil {
		fmt.Fprintf(os.Stderr, "terminate redis container: %v\n", err)
	}
	os.Exit(code)
}
