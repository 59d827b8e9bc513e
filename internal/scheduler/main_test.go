package scheduler

import (
	"os"
	"testing"

	"github.com/blues/crowdledger/internal/logger"
)

func TestMain(m *testing.M) {
	logger.SetDefaultLogger(logger.NewNop())
	os.Exit(m.Run())
}
