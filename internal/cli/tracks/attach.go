package tracks

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/tracking"
)

type TrackAttachCmd struct {
	Username string `arg:"" help:"Operator username."`
	Block    string `arg:"" help:"Block id or start hour."`
	File     string `arg:"" type:"existingfile" help:"File to attach."`
	Name     string `help:"Attachment name. Defaults to the file name."`
	Date     string `short:"d" help:"Day the attachment is for (YYYY-MM-DD). Defaults to today."`
	PIN      string `help:"Operator PIN, or the supervisor PIN." env:"OPSBOARD_PIN"`
}

func (c *TrackAttachCmd) Run(ctx *cli.Context) error {
	tgt, err := resolve(ctx, c.Username, c.PIN, c.Block, c.Date)
	if err != nil {
		return err
	}

	info, err := os.Stat(c.File)
	if err != nil {
		return fmt.Errorf("failed to read attachment: %w", err)
	}
	if info.Size() > tracking.MaxAttachmentBytes {
		return fmt.Errorf("%s is %d bytes, limit is %d", c.File, info.Size(), tracking.MaxAttachmentBytes)
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read attachment: %w", err)
	}
	name := c.Name
	if name == "" {
		name = filepath.Base(c.File)
	}

	svc, err := ctx.TrackingService()
	if err != nil {
		return err
	}
	mime := mimetype.Detect(data).String()
	rec, err := svc.Attach(ctx.Context(), tgt.actor, c.Username, tgt.key, name, mime, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stdout(), "✓ Attached %s (%s, %d bytes) to %s; %d attachment(s) today\n",
		name, mime, len(data), tgt.block.Label, len(rec.Attachments))
	return nil
}
