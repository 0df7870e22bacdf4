package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/blockvault/aes256filter"
)

type encryptCmd struct {
	Plaintext  string `arg:"" type:"existingfile" help:"The path to the plaintext file."`
	Ciphertext string `arg:"" type:"path" help:"The path to the ciphertext file."`

	CfgDir  string `help:"Local cache directory for the key and fingerprint." default:"."`
	Options string `help:"Comma-separated volume options: nogenkey, paranoid, salt:HEX."`
	Debug   bool   `help:"Enable verbose logging."`
}

func (cmd *encryptCmd) Run(_ *kong.Context) error {
	opts, err := parseOptionsFlag(cmd.Options)
	if err != nil {
		return err
	}

	cfgPath := cmd.Ciphertext + ".aes256cfg"
	metaPath := cmd.Ciphertext + ".aes256meta"

	cfgData, err := loadCfgData(cfgPath)
	if err != nil {
		return err
	}

	if cfgData == nil {
		cfgData, err = aes256filter.NewVolumeCfgData(opts)
		if err != nil {
			return err
		}
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
		Mode:    aes256filter.Upload,
		CfgData: cfgData,
		CfgDir:  cmd.CfgDir,
		Meta:    meta,
		Prompt:  termPrompter{},
		Log:     log,
		Options: opts,
	})
	if err != nil {
		return err
	}

	defer sess.Finish() //nolint:errcheck

	src, err := os.Open(cmd.Plaintext)
	if err != nil {
		return err
	}

	defer src.Close() //nolint:errcheck

	dst, err := os.Create(cmd.Ciphertext)
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
