package aes256filter

// Filter is the host-facing entry point: one Filter per volume, carrying
// it through the prepare/process/finish lifecycle a host driving the
// filter ABI expects (aes256_data_prepare / aes256_data_process /
// aes256_data_finish in the original filter's function table).
type Filter struct {
	sess   *Session
	stream *Stream

	// newCfgData caches sess.NewCfgData across DataFinish, which nils sess
	// out, so NewCfgData remains readable afterward as documented.
	newCfgData []byte
}

// DataPrepare reconciles key material for one upload or download and
// readies the filter to process data. It corresponds to the original
// filter's data_prepare entry point.
func (f *Filter) DataPrepare(in PrepareInput) error {
	sess, err := Prepare(in)
	if err != nil {
		return err
	}

	f.sess = sess
	f.stream = sess.Stream()
	f.newCfgData = nil

	return nil
}

// DataProcess pumps one chunk of in through the filter, writing as much
// produced output as fits in out, and returns the Action the host must
// pass back on its next call. It corresponds to the original filter's
// data_process entry point.
func (f *Filter) DataProcess(in, out []byte, action Action) (int, Action, error) {
	return f.stream.Process(in, out, action)
}

// NewCfgData reports the config bytes the host should persist back to the
// volume after DataFinish, or nil if nothing changed.
func (f *Filter) NewCfgData() []byte {
	return f.newCfgData
}

// DataFinish releases the filter's key material, ending the session. It
// corresponds to the original filter's data_finish entry point.
func (f *Filter) DataFinish() error {
	if f.stream != nil {
		_ = f.stream.Close()
		f.stream = nil
	}

	if f.sess == nil {
		return nil
	}

	f.newCfgData = f.sess.NewCfgData

	err := f.sess.Finish()
	f.sess = nil

	return err
}
