package config

import (
	"github.com/thoreinstein/miuitask/internal/auth"
	"github.com/thoreinstein/miuitask/internal/redact"
)

// Redacted returns a deep copy of cfg with credentials masked for display.
func Redacted(cfg *Config) *Config {
	out := cfg.Clone()
	if out == nil {
		return nil
	}

	for i := range out.Accounts {
		a := &out.Accounts[i]
		a.Password = redact.MaskValue(a.Password)
		if a.Cookies != nil {
			a.Cookies = auth.Cookies(redact.MaskMap(a.Cookies))
		}
	}

	p := &out.Preference
	p.GeetestURL = redact.MaskURL(p.GeetestURL)
	p.TwoCaptchaAPIKey = redact.MaskValue(p.TwoCaptchaAPIKey)
	p.OCR.AppKey = redact.MaskValue(p.OCR.AppKey)
	p.OCR.CreateTaskURL = redact.MaskURL(p.OCR.CreateTaskURL)
	p.OCR.GetTaskResultURL = redact.MaskURL(p.OCR.GetTaskResultURL)

	maskParams(p.GeetestParams)
	maskParams(p.GeetestData)
	maskParams(p.OCR.CreateTaskData)
	maskParams(out.Push.Params)

	return out
}

// maskParams masks string values under secret-looking keys, recursing into
// nested mappings.
func maskParams(m *Mapping) {
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		switch t := v.(type) {
		case string:
			if redact.ShouldMask(k) {
				m.Set(k, redact.MaskValue(t))
			}
		case *Mapping:
			maskParams(t)
		}
	}
}
