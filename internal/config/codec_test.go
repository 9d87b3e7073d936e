package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/miuitask/internal/auth"
	"github.com/thoreinstein/miuitask/internal/errors"
	"github.com/thoreinstein/miuitask/internal/paths"
)

var formats = []paths.Format{paths.FormatJSON, paths.FormatYAML}

// populated returns a config with every field set to a non-default value.
func populated() *Config {
	first := DefaultAccount()
	first.UID = "123456789"
	first.Password = auth.HashPassword("hunter2")
	first.Cookies = auth.Cookies{"serviceToken": "abc=def", "userId": "123456789"}
	first.LoginUserAgent = "login-agent"
	first.Device = "device-id"
	first.DeviceModel = "小米 14"
	first.CheckIn = true
	first.BrowsePost = true
	first.CarrotPull = true

	second := DefaultAccount()
	second.UID = "987654321"
	second.Password = auth.HashPassword("")
	second.UserAgent = "custom agent <&>"
	second.WxSign = true

	return &Config{
		Preference: Preference{
			GeetestURL:          "https://captcha.example.com/solve?a=1&b=2",
			GeetestParams:       MappingOf("gt", "abc", "challenge", "def"),
			GeetestData:         MappingOf("nested", MappingOf("k", "v")),
			TwoCaptchaAPIKey:    "2captcha-key",
			TwoCaptchaUserAgent: "2captcha-agent",
			OCR: OCRSettings{
				AppKey:           "ocr-key",
				CreateTaskURL:    "http://ocr.example.com/create",
				CreateTaskData:   MappingOf("retries", 3, "tags", []any{"a", "b"}),
				GetTaskResultURL: "http://ocr.example.com/result",
			},
		},
		Accounts: []Account{first, second},
		Push: PushSettings{
			Notifier: NotifierName("telegram"),
			Params: MappingOf(
				"title", "MIUI 社区",
				"markdown", true,
				"token", "tok",
				"userid", "u1",
				"extra", "passthrough",
			),
		},
	}
}

func TestRoundTrip(t *testing.T) {
	cases := map[string]*Config{
		"populated": populated(),
		"defaults":  Default(),
		"no accounts": func() *Config {
			c := Default()
			c.Accounts = []Account{}
			return c
		}(),
		"notifier false": func() *Config {
			c := Default()
			c.Push.Notifier = NotifierBool(false)
			return c
		}(),
	}

	for _, format := range formats {
		for name, cfg := range cases {
			t.Run(string(format)+"/"+name, func(t *testing.T) {
				data, err := Marshal(cfg, format)
				require.NoError(t, err)

				got, err := Unmarshal(data, format)
				require.NoError(t, err)

				// Passwords come back as digests, including the empty one.
				want := cfg.Clone()
				for i := range want.Accounts {
					want.Accounts[i].SetPassword(want.Accounts[i].Password)
				}
				assert.Equal(t, want, got)

				again, err := Marshal(got, format)
				require.NoError(t, err)
				reloaded, err := Unmarshal(again, format)
				require.NoError(t, err)
				third, err := Marshal(reloaded, format)
				require.NoError(t, err)
				assert.Equal(t, string(again), string(third), "canonical output is stable")
			})
		}
	}
}

func TestMarshal_JSONLayout(t *testing.T) {
	data, err := Marshal(populated(), paths.FormatJSON)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, "\n  \"preference\": {\n    \"geetest_url\"")
	assert.Less(t, strings.Index(out, `"preference"`), strings.Index(out, `"accounts"`))
	assert.Less(t, strings.Index(out, `"accounts"`), strings.Index(out, `"ONEPUSH"`))
	assert.Contains(t, out, "小米 14")
	assert.Contains(t, out, "a=1&b=2")
	assert.Contains(t, out, "<&>")
}

func TestMarshal_YAMLLayout(t *testing.T) {
	data, err := Marshal(populated(), paths.FormatYAML)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, "preference:\n    geetest_url:"))
	assert.Contains(t, out, "MIUI 社区")
	assert.Less(t, strings.Index(out, "CheckIn"), strings.Index(out, "BrowseUserPage"))
	assert.Less(t, strings.Index(out, "CarrotPull"), strings.Index(out, "WxSign"))
	assert.Less(t, strings.Index(out, "\naccounts:"), strings.Index(out, "\nONEPUSH:"))
}

func TestMarshal_NilCollections(t *testing.T) {
	cfg := &Config{}

	data, err := Marshal(cfg, paths.FormatJSON)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"accounts": []`)
	assert.Contains(t, out, `"params": {}`)
	assert.NotContains(t, out, "null")

	assert.Nil(t, cfg.Accounts, "Marshal does not modify its input")

	_, err = Marshal(nil, paths.FormatJSON)
	assert.True(t, errors.Is(err, errors.ErrWrite))
}

func TestUnmarshal_MissingFieldsKeepDefaults(t *testing.T) {
	tests := []struct {
		name   string
		format paths.Format
		input  string
	}{
		{"json empty object", paths.FormatJSON, `{}`},
		{"yaml empty mapping", paths.FormatYAML, `{}`},
		{"json partial", paths.FormatJSON, `{"preference": {"geetest_url": ""}, "ONEPUSH": {}}`},
		{"yaml partial", paths.FormatYAML, "preference:\n    ttocr: {}\nONEPUSH:\n    notifier: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unmarshal([]byte(tt.input), tt.format)
			require.NoError(t, err)
			assert.Equal(t, Default(), got)
		})
	}
}

func TestUnmarshal_AccountDefaults(t *testing.T) {
	input := `{"accounts": [{"uid": "42", "ThumbUp": true}, {}]}`

	got, err := Unmarshal([]byte(input), paths.FormatJSON)
	require.NoError(t, err)
	require.Len(t, got.Accounts, 2)

	want := DefaultAccount()
	want.UID = "42"
	want.ThumbUp = true
	assert.Equal(t, want, got.Accounts[0])
	assert.Equal(t, DefaultAccount(), got.Accounts[1])
}

func TestUnmarshal_EmptyAccountList(t *testing.T) {
	got, err := Unmarshal([]byte(`{"accounts": []}`), paths.FormatJSON)
	require.NoError(t, err)
	assert.NotNil(t, got.Accounts)
	assert.Empty(t, got.Accounts)
}

func TestUnmarshal_Password(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"raw", "password", "5F4DCC3B5AA765D61D8327DEB882CF99"},
		{"uppercase digest", "5F4DCC3B5AA765D61D8327DEB882CF99", "5F4DCC3B5AA765D61D8327DEB882CF99"},
		{"lowercase digest", "5f4dcc3b5aa765d61d8327deb882cf99", "5f4dcc3b5aa765d61d8327deb882cf99"},
		{"empty", "", "D41D8CD98F00B204E9800998ECF8427E"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "accounts:\n    - uid: \"1\"\n      password: \"" + tt.in + "\"\n"
			got, err := Unmarshal([]byte(input), paths.FormatYAML)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Accounts[0].Password)
		})
	}
}

func TestUnmarshal_Cookies(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  auth.Cookies
	}{
		{"raw string", `cookies: "a=1; b=2"`, auth.Cookies{"a": "1", "b": "2"}},
		{"empty string", `cookies: ""`, auth.Cookies{}},
		{"trailing semicolon", `cookies: "a=1;"`, auth.Cookies{"a": "1"}},
		{"mapping", "cookies:\n          a: \"1\"", auth.Cookies{"a": "1"}},
		{"empty mapping", `cookies: {}`, auth.Cookies{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "accounts:\n    - " + tt.input + "\n"
			got, err := Unmarshal([]byte(input), paths.FormatYAML)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Accounts[0].Cookies)
		})
	}
}

func TestUnmarshal_Notifier(t *testing.T) {
	tests := []struct {
		input string
		want  Notifier
	}{
		{`{"ONEPUSH": {"notifier": "bark"}}`, NotifierName("bark")},
		{`{"ONEPUSH": {"notifier": false}}`, NotifierBool(false)},
		{`{"ONEPUSH": {"notifier": true}}`, NotifierBool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Unmarshal([]byte(tt.input), paths.FormatJSON)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Push.Notifier)
		})
	}
}

func TestUnmarshal_ParamsReplaceDefaults(t *testing.T) {
	got, err := Unmarshal([]byte(`{"ONEPUSH": {"params": {"token": "t"}}}`), paths.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, MappingOf("token", "t"), got.Push.Params)
}

func TestUnmarshal_AbsentPasswordStaysEmpty(t *testing.T) {
	res, err := Decode([]byte("accounts:\n    - uid: \"1\"\n"), paths.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "", res.Config.Accounts[0].Password)
	assert.Empty(t, res.Hashed)
}

func TestDecode_Hashed(t *testing.T) {
	input := `{"accounts": [
		{"uid": "1", "password": "hunter2"},
		{"uid": "2", "password": "5F4DCC3B5AA765D61D8327DEB882CF99"},
		{"uid": "3", "password": ""},
		{"uid": "4", "password": "secret"}
	]}`

	res, err := Decode([]byte(input), paths.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts[0].password", "accounts[3].password"}, res.Hashed)
	assert.Equal(t, auth.HashPassword("hunter2"), res.Config.Accounts[0].Password)
}

func TestRoundTrip_KeepsMappingOrder(t *testing.T) {
	tests := []struct {
		name   string
		format paths.Format
		input  string
	}{
		{"yaml flow", paths.FormatYAML, "ONEPUSH:\n    params: {zeta: 1, title: t}\n"},
		{"yaml block", paths.FormatYAML, "ONEPUSH:\n    params:\n        zeta: 1\n        title: t\n"},
		{"json", paths.FormatJSON, `{"ONEPUSH": {"params": {"zeta": 1, "title": "t"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Unmarshal([]byte(tt.input), tt.format)
			require.NoError(t, err)
			assert.Equal(t, []string{"zeta", "title"}, cfg.Push.Params.Keys())

			for _, format := range formats {
				data, err := Marshal(cfg, format)
				require.NoError(t, err)
				out := string(data)
				assert.Less(t, strings.Index(out, "zeta"), strings.Index(out, "title"), string(format))

				again, err := Unmarshal(data, format)
				require.NoError(t, err)
				assert.Equal(t, []string{"zeta", "title"}, again.Push.Params.Keys(), string(format))
			}
		})
	}
}

func TestRoundTrip_NestedMappingOrder(t *testing.T) {
	input := `{"preference": {
		"geetest_params": {"z": 1, "a": {"y": true, "b": [{"n": 1, "m": 2}]}},
		"geetest_data": {"k2": "v", "k1": "v"},
		"ttocr": {"createTask_data": {"typeId": 1, "appKey": "x"}}
	}}`

	cfg, err := Unmarshal([]byte(input), paths.FormatJSON)
	require.NoError(t, err)

	for _, format := range formats {
		data, err := Marshal(cfg, format)
		require.NoError(t, err)
		got, err := Unmarshal(data, format)
		require.NoError(t, err)

		p := got.Preference
		assert.Equal(t, []string{"z", "a"}, p.GeetestParams.Keys())
		nested := get(t, p.GeetestParams, "a").(*Mapping)
		assert.Equal(t, []string{"y", "b"}, nested.Keys())
		item := get(t, nested, "b").([]any)[0].(*Mapping)
		assert.Equal(t, []string{"n", "m"}, item.Keys())
		assert.Equal(t, []string{"k2", "k1"}, p.GeetestData.Keys())
		assert.Equal(t, []string{"typeId", "appKey"}, p.OCR.CreateTaskData.Keys())
	}
}

func TestMarshal_DefaultParamsOrder(t *testing.T) {
	data, err := Marshal(Default(), paths.FormatYAML)
	require.NoError(t, err)
	out := string(data)

	title := strings.Index(out, "title:")
	markdown := strings.Index(out, "markdown:")
	token := strings.Index(out, "token:")
	userid := strings.Index(out, "userid:")
	assert.Less(t, title, markdown)
	assert.Less(t, markdown, token)
	assert.Less(t, token, userid)
}

func TestUnmarshal_YAMLAnchorsAndMerge(t *testing.T) {
	input := `preference:
    geetest_params: &base
        gt: abc
        challenge: def
    geetest_data:
        <<: *base
        challenge: override
        extra: 1
`
	cfg, err := Unmarshal([]byte(input), paths.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, []string{"gt", "challenge"}, cfg.Preference.GeetestParams.Keys())
	assert.Equal(t, []string{"gt", "challenge", "extra"}, cfg.Preference.GeetestData.Keys())
	assert.Equal(t, "override", get(t, cfg.Preference.GeetestData, "challenge"))
	assert.Equal(t, "def", get(t, cfg.Preference.GeetestParams, "challenge"))
}

func TestDecode_UnknownKeys(t *testing.T) {
	input := `{"typo": 1, "preference": {"extra": true}, "accounts": [{"uid": "1", "nickname": "x"}]}`

	res, err := Decode([]byte(input), paths.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts[0].nickname", "preference.extra", "typo"}, res.Unknown)
}

func TestUnmarshal_ParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		format paths.Format
		input  string
	}{
		{"json truncated", paths.FormatJSON, `{"accounts": [`},
		{"json empty", paths.FormatJSON, ``},
		{"json trailing data", paths.FormatJSON, `{} {}`},
		{"yaml unclosed flow", paths.FormatYAML, "accounts: [\n"},
		{"yaml nested mapping on one line", paths.FormatYAML, "a: b: c\n"},
		{"yaml duplicate key", paths.FormatYAML, "a: 1\na: 2\n"},
		{"yaml merge of scalar", paths.FormatYAML, "a: 1\nb:\n    <<: 2\n"},
		{"json missing colon", paths.FormatJSON, `{"a" 1}`},
		{"json unclosed object", paths.FormatJSON, `{"a": 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.input), tt.format)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrParse), "got %v", err)
			assert.False(t, errors.Is(err, errors.ErrValidation))
		})
	}
}

func TestUnmarshal_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		format paths.Format
		input  string
		field  string
	}{
		{"uid number", paths.FormatJSON, `{"accounts": [{"uid": 123}]}`, "accounts[0].uid"},
		{"flag string", paths.FormatJSON, `{"accounts": [{"CheckIn": "yes"}]}`, "accounts[0].CheckIn"},
		{"accounts not list", paths.FormatJSON, `{"accounts": {}}`, "accounts"},
		{"notifier number", paths.FormatJSON, `{"ONEPUSH": {"notifier": 1}}`, "ONEPUSH.notifier"},
		{"params list", paths.FormatYAML, "ONEPUSH:\n    params: [1]\n", "ONEPUSH.params"},
		{"root list", paths.FormatYAML, "- 1\n", "(root)"},
		{"empty yaml", paths.FormatYAML, "", "(root)"},
		{"ocr data string", paths.FormatJSON, `{"preference": {"ttocr": {"createTask_data": "x"}}}`, "preference.ttocr.createTask_data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.input), tt.format)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrValidation), "got %v", err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			fields := make([]string, len(verr.Problems))
			for i, p := range verr.Problems {
				fields[i] = p.Field
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestUnmarshal_MalformedCookie(t *testing.T) {
	_, err := Unmarshal([]byte(`{"accounts": [{"cookies": "a=1; broken"}]}`), paths.FormatJSON)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, err.Error(), "accounts[0]")
}

func TestFieldPath(t *testing.T) {
	tests := map[string]string{
		"":                  "(root)",
		"/accounts/0/uid":   "accounts[0].uid",
		"/ONEPUSH/params":   "ONEPUSH.params",
		"/a~1b/c~0d":        "a/b.c~d",
		"/accounts/12":      "accounts[12]",
		"/preference/ttocr": "preference.ttocr",
	}

	for in, want := range tests {
		assert.Equal(t, want, fieldPath(in), in)
	}
}
