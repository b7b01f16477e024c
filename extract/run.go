// Package extract implements the extract subcommand: it reads an archive,
// runs the parser and writes normalized records as YAML or JSON.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"fmfc/common"
	"fmfc/config"
	"fmfc/fmf"
	"fmfc/state"
)

// ArchiveExtension is the usual extension of database archives. Other
// extensions are accepted with a warning.
const ArchiveExtension = ".fmf"

// stdout is destination name used in logs when no destination was requested.
const stdout = "STDOUT"

type request struct {
	src string
	// dst is empty when output goes to STDOUT
	dst       string
	format    common.OutputFmt
	documents bool
	indent    int
}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("extract")

	req := request{
		src:       cmd.Args().Get(0),
		dst:       cmd.Args().Get(1),
		format:    env.Cfg.Output.Format,
		documents: env.Cfg.Output.Documents || cmd.Bool("documents"),
		indent:    env.Cfg.Output.Indent,
	}
	if len(req.src) == 0 {
		return errors.New("no input source has been specified")
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	if cmd.IsSet("to") {
		format, err := common.ParseOutputFmt(cmd.String("to"))
		if err != nil {
			log.Warn("Unknown output format requested, using configured one", zap.Error(err), zap.Stringer("format", req.format))
		} else {
			req.format = format
		}
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archive", zap.String("charset", n))
		}
	}
	env.Format, env.Documents = req.format, req.documents

	return process(ctx, env, req, log)
}

// process handles extraction independently of CLI framework.
func process(ctx context.Context, env *state.LocalEnv, req request, log *zap.Logger) (err error) {
	if req.src, err = filepath.Abs(req.src); err != nil {
		return err
	}
	if req.dst, err = destination(req.src, req.dst, req.format); err != nil {
		return err
	}
	dstName := req.dst
	if len(dstName) == 0 {
		dstName = stdout
	}

	if !strings.EqualFold(filepath.Ext(req.src), ArchiveExtension) {
		log.Warn("Unexpected archive extension, trying anyway", zap.String("source", req.src), zap.String("expected", ArchiveExtension))
	}

	log.Debug("Processing starting", zap.Stringer("run", env.RunID), zap.String("source", req.src),
		zap.String("destination", dstName), zap.Stringer("format", req.format), zap.Bool("documents", req.documents))
	defer func(start time.Time) {
		log.Debug("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	raw, err := os.ReadFile(req.src)
	if err != nil {
		return fmt.Errorf("unable to read archive: %w", err)
	}

	opts := env.Cfg.Parser.Options()
	opts.CodePage = env.CodePage

	data, err := fmf.Parse(ctx, raw, opts, log)
	if err != nil {
		return fmt.Errorf("unable to parse archive (%s): %w", req.src, err)
	}
	storeReport(env.Rpt, env.RunID.String(), data)

	out := os.Stdout
	if len(req.dst) > 0 {
		if out, err = os.Create(req.dst); err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", req.dst, err)
		}
		defer func() {
			if er := out.Close(); er != nil && err == nil {
				err = fmt.Errorf("unable to close destination file '%s': %w", req.dst, er)
			}
		}()
	}

	if err := Write(out, data, req.format, WriteOptions{Documents: req.documents, Indent: req.indent}); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}

	logResult := log.Debug
	if len(req.dst) > 0 {
		// console output does not mix with result
		logResult = log.Info
	}
	s := data.Summary()
	logResult("Result written", zap.String("destination", dstName), zap.Int("documents", s.Documents), zap.Int("skipped", s.Skipped),
		zap.Int("players", s.Players), zap.Int("clubs", s.Clubs), zap.Int("competitions", s.Competitions))
	if s.Skipped > 0 {
		log.Warn("Some archive entries were skipped", zap.Int("count", s.Skipped), zap.Error(data.Err()))
	}
	return nil
}

// destination resolves output file name. Existing directory gets the file named
// after the source, empty destination means STDOUT.
func destination(src, dst string, format common.OutputFmt) (string, error) {
	if len(dst) == 0 {
		return "", nil
	}
	dst, err := filepath.Abs(dst)
	if err != nil {
		return "", err
	}
	if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		return filepath.Join(dst, config.CleanFileName(base)+format.Ext()), nil
	}
	return dst, nil
}
