package config

import (
	"encoding/json"

	"github.com/thoreinstein/miuitask/internal/auth"
)

// DefaultUID is the identifier of the placeholder account written to a new file.
const DefaultUID = "100000"

// DefaultUserAgent is the browser user agent used for task requests.
const DefaultUserAgent = "Mozilla/5.0 (Linux; Android 13) AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/116.0.0.0 Safari/537.36"

// Config is the root of the configuration file.
type Config struct {
	Preference Preference   `json:"preference" yaml:"preference" mapstructure:"preference"`
	Accounts   []Account    `json:"accounts" yaml:"accounts" mapstructure:"-"`
	Push       PushSettings `json:"ONEPUSH" yaml:"ONEPUSH" mapstructure:"ONEPUSH"`
}

// Account is one managed user with its credentials, device identity and
// per-task switches.
type Account struct {
	UID            string       `json:"uid" yaml:"uid" mapstructure:"uid"`
	Password       string       `json:"password" yaml:"password" mapstructure:"password"`
	Cookies        auth.Cookies `json:"cookies" yaml:"cookies" mapstructure:"cookies"`
	LoginUserAgent string       `json:"login_user_agent" yaml:"login_user_agent" mapstructure:"login_user_agent"`
	UserAgent      string       `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
	Device         string       `json:"device" yaml:"device" mapstructure:"device"`
	DeviceModel    string       `json:"device_model" yaml:"device_model" mapstructure:"device_model"`

	CheckIn           bool `json:"CheckIn" yaml:"CheckIn" mapstructure:"CheckIn"`
	BrowseUserPage    bool `json:"BrowseUserPage" yaml:"BrowseUserPage" mapstructure:"BrowseUserPage"`
	BrowsePost        bool `json:"BrowsePost" yaml:"BrowsePost" mapstructure:"BrowsePost"`
	BrowseVideoPost   bool `json:"BrowseVideoPost" yaml:"BrowseVideoPost" mapstructure:"BrowseVideoPost"`
	ThumbUp           bool `json:"ThumbUp" yaml:"ThumbUp" mapstructure:"ThumbUp"`
	BrowseSpecialPage bool `json:"BrowseSpecialPage" yaml:"BrowseSpecialPage" mapstructure:"BrowseSpecialPage"`
	BoardFollow       bool `json:"BoardFollow" yaml:"BoardFollow" mapstructure:"BoardFollow"`
	CarrotPull        bool `json:"CarrotPull" yaml:"CarrotPull" mapstructure:"CarrotPull"`
	WxSign            bool `json:"WxSign" yaml:"WxSign" mapstructure:"WxSign"`
}

// Task is one named feature switch of an account.
type Task struct {
	Name    string
	Enabled bool
}

// Tasks returns the account's feature switches in file order.
func (a *Account) Tasks() []Task {
	return []Task{
		{"CheckIn", a.CheckIn},
		{"BrowseUserPage", a.BrowseUserPage},
		{"BrowsePost", a.BrowsePost},
		{"BrowseVideoPost", a.BrowseVideoPost},
		{"ThumbUp", a.ThumbUp},
		{"BrowseSpecialPage", a.BrowseSpecialPage},
		{"BoardFollow", a.BoardFollow},
		{"CarrotPull", a.CarrotPull},
		{"WxSign", a.WxSign},
	}
}

// SetPassword stores the digest of a raw password, or the value itself if it
// is already a digest.
func (a *Account) SetPassword(raw string) {
	a.Password = auth.NormalizePassword(raw)
}

// PushSettings configures the outbound notification integration.
type PushSettings struct {
	Notifier Notifier `json:"notifier" yaml:"notifier" mapstructure:"notifier"`
	Params   *Mapping `json:"params" yaml:"params" mapstructure:"params"`
}

// Recognized push parameter keys. Other keys are passed through untouched.
const (
	ParamTitle    = "title"
	ParamMarkdown = "markdown"
	ParamToken    = "token"
	ParamUserID   = "userid"
)

// Title returns the "title" parameter, or "" if absent or not a string.
func (p *PushSettings) Title() string { return stringParam(p.Params, ParamTitle) }

// Token returns the "token" parameter, or "" if absent or not a string.
func (p *PushSettings) Token() string { return stringParam(p.Params, ParamToken) }

// UserID returns the "userid" parameter, or "" if absent or not a string.
func (p *PushSettings) UserID() string { return stringParam(p.Params, ParamUserID) }

// Markdown returns the "markdown" parameter, or false if absent or not a bool.
func (p *PushSettings) Markdown() bool {
	v, _ := p.Params.Get(ParamMarkdown)
	b, _ := v.(bool)
	return b
}

func stringParam(m *Mapping, key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

// Notifier names the push provider. It is either a provider name or a
// boolean, where false switches pushing off.
type Notifier struct {
	name   string
	flag   bool
	isBool bool
}

// NotifierName returns a Notifier naming a provider.
func NotifierName(name string) Notifier {
	return Notifier{name: name}
}

// NotifierBool returns a boolean Notifier. NotifierBool(false) disables push.
func NotifierBool(b bool) Notifier {
	return Notifier{flag: b, isBool: true}
}

// Name returns the provider name, or "" for boolean notifiers.
func (n Notifier) Name() string { return n.name }

// IsBool reports whether the notifier was given as a boolean.
func (n Notifier) IsBool() bool { return n.isBool }

// Enabled reports whether notifications should be sent.
func (n Notifier) Enabled() bool {
	if n.isBool {
		return n.flag
	}
	return n.name != ""
}

// Value returns the notifier as it appears in the file: a string or a bool.
func (n Notifier) Value() any {
	if n.isBool {
		return n.flag
	}
	return n.name
}

// String implements fmt.Stringer.
func (n Notifier) String() string {
	if n.isBool {
		if n.flag {
			return "true"
		}
		return "false"
	}
	return n.name
}

// MarshalJSON implements json.Marshaler.
func (n Notifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Value())
}

// MarshalYAML implements yaml.Marshaler.
func (n Notifier) MarshalYAML() (any, error) {
	return n.Value(), nil
}

// OCRSettings configures the ttocr captcha-solving service.
type OCRSettings struct {
	AppKey           string   `json:"app_key" yaml:"app_key" mapstructure:"app_key"`
	CreateTaskURL    string   `json:"createTask_url" yaml:"createTask_url" mapstructure:"createTask_url"`
	CreateTaskData   *Mapping `json:"createTask_data" yaml:"createTask_data" mapstructure:"createTask_data"`
	GetTaskResultURL string   `json:"getTaskResult_url" yaml:"getTaskResult_url" mapstructure:"getTaskResult_url"`
}

// Preference holds global switches and captcha provider settings.
type Preference struct {
	GeetestURL          string      `json:"geetest_url" yaml:"geetest_url" mapstructure:"geetest_url"`
	GeetestParams       *Mapping    `json:"geetest_params" yaml:"geetest_params" mapstructure:"geetest_params"`
	GeetestData         *Mapping    `json:"geetest_data" yaml:"geetest_data" mapstructure:"geetest_data"`
	TwoCaptchaAPIKey    string      `json:"twocaptcha_api_key" yaml:"twocaptcha_api_key" mapstructure:"twocaptcha_api_key"`
	TwoCaptchaUserAgent string      `json:"twocaptcha_userAgent" yaml:"twocaptcha_userAgent" mapstructure:"twocaptcha_userAgent"`
	OCR                 OCRSettings `json:"ttocr" yaml:"ttocr" mapstructure:"ttocr"`
}

// Default returns a configuration with every field at its default value
// and a single default account.
func Default() *Config {
	return &Config{
		Preference: DefaultPreference(),
		Accounts:   []Account{DefaultAccount()},
		Push:       DefaultPushSettings(),
	}
}

// DefaultAccount returns the placeholder account.
func DefaultAccount() Account {
	return Account{
		UID:       DefaultUID,
		Cookies:   auth.Cookies{},
		UserAgent: DefaultUserAgent,
	}
}

// DefaultPushSettings returns push settings with an empty notifier and the
// recognized parameters present but empty.
func DefaultPushSettings() PushSettings {
	return PushSettings{
		Notifier: NotifierName(""),
		Params: MappingOf(
			ParamTitle, "",
			ParamMarkdown, false,
			ParamToken, "",
			ParamUserID, "",
		),
	}
}

// DefaultPreference returns empty provider settings.
func DefaultPreference() Preference {
	return Preference{
		GeetestParams: NewMapping(),
		GeetestData:   NewMapping(),
		OCR: OCRSettings{
			CreateTaskData: NewMapping(),
		},
	}
}

// Account returns the account with the given uid.
func (c *Config) Account(uid string) (*Account, bool) {
	for i := range c.Accounts {
		if c.Accounts[i].UID == uid {
			return &c.Accounts[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := &Config{
		Preference: c.Preference,
		Push:       c.Push,
	}
	out.Preference.GeetestParams = c.Preference.GeetestParams.Clone()
	out.Preference.GeetestData = c.Preference.GeetestData.Clone()
	out.Preference.OCR.CreateTaskData = c.Preference.OCR.CreateTaskData.Clone()
	out.Push.Params = c.Push.Params.Clone()

	if c.Accounts != nil {
		out.Accounts = make([]Account, len(c.Accounts))
		for i, a := range c.Accounts {
			out.Accounts[i] = a
			if a.Cookies != nil {
				out.Accounts[i].Cookies = make(auth.Cookies, len(a.Cookies))
				for k, v := range a.Cookies {
					out.Accounts[i].Cookies[k] = v
				}
			}
		}
	}
	return out
}

// normalized returns a copy in which nil mappings and a nil account list are
// replaced by empty ones, so they serialize as {} and [] instead of null.
func (c *Config) normalized() *Config {
	out := c.Clone()
	if out.Accounts == nil {
		out.Accounts = []Account{}
	}
	for i := range out.Accounts {
		if out.Accounts[i].Cookies == nil {
			out.Accounts[i].Cookies = auth.Cookies{}
		}
	}
	emptyIfNil(&out.Preference.GeetestParams)
	emptyIfNil(&out.Preference.GeetestData)
	emptyIfNil(&out.Preference.OCR.CreateTaskData)
	emptyIfNil(&out.Push.Params)
	return out
}

func emptyIfNil(m **Mapping) {
	if *m == nil {
		*m = NewMapping()
	}
}
