package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/blockvault/aes256filter"
)

type decryptCmd struct {
	Ciphertext string `arg:"" type:"existingfile" help:"The path to the ciphertext file."`
	Plaintext  string `arg:"" type:"path" help:"The path to the plaintext file."`

	CfgDir string `help:"Local cache directory for the key and fingerprint." default:"."`
	Debug  bool   `help:"Enable verbose logging."`
}

func (cmd *decryptCmd) Run(_ *kong.Context) error {
	cfgPath := cmd.Ciphertext + ".aes256cfg"
	metaPath := cmd.Ciphertext + ".aes256meta"

	cfgData, err := loadCfgData(cfgPath)
	if err != nil {
		return err
	}

	meta, err := loadMetaStore(metaPath)
	if err != nil {
		return err
	}

	log, err := newZapLogger(cmd.Debug)
	if err != nil {
		return err
	}

	defer log.sync() //nolint:errcheck

	sess, err := aes256filter.Prepare(aes256filter.PrepareInput{
		Mode:    aes256filter.Download,
		CfgData: cfgData,
		CfgDir:  cmd.CfgDir,
		Meta:    meta,
		Prompt:  termPrompter{},
		Log:     log,
	})
	if err != nil {
		return err
	}

	defer sess.Finish() //nolint:errcheck

	src, err := os.Open(cmd.Ciphertext)
	if err != nil {
		return err
	}

	defer src.Close() //nolint:errcheck

	dst, err := os.Create(cmd.Plaintext)
	if err != nil {
		return err
	}

	defer dst.Close() //nolint:errcheck

	if err := pumpFile(sess.Stream(), src, dst); err != nil {
		return err
	}

	if sess.NewCfgData != nil {
		cfgData = sess.NewCfgData
	}

	if err := saveCfgData(cfgPath, cfgData); err != nil {
		return err
	}

	return meta.save()
}
