package transfer

import (
	"testing"

	"github.com/meridianfin/brs/internal/config"
)

func TestRemotePaths(t *testing.T) {
	c := &Client{cfg: config.SFTPConfig{BasePath: "/BRS/Bank Reco"}}

	if got := c.inputDir("86033"); got != "/BRS/Bank Reco 86033/Input Files" {
		t.Errorf("inputDir = %q", got)
	}
	if got := c.outputDir("607"); got != "/BRS/Bank Reco 607/Output Files" {
		t.Errorf("outputDir = %q", got)
	}
}
