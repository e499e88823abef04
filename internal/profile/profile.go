// Package profile holds the reporting profile printed on every exported
// document: the company that issues the diagnosis.
package profile

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

type Profile struct {
	Name    string `env:"NAME" envDefault:"株式会社メディカルネット"`
	Address string `env:"ADDRESS" envDefault:"東京都渋谷区幡ケ谷１丁目３４−１４ 宝ビル 3F"`
	Phone   string `env:"PHONE" envDefault:"03-5790-5261"`
	Email   string `env:"EMAIL"`
	Website string `env:"WEBSITE" envDefault:"https://medicalnet-support.com/"`
	Region  string `env:"REGION" envDefault:"JP"`
	Footer  string `env:"FOOTER" envDefault:"© 2025 歯科医院経営診断システム"`
}

// DisplayPhone formats the phone number in the national format of the
// profile's region. Numbers that do not parse are returned as configured.
func (p Profile) DisplayPhone() string {
	raw := strings.TrimSpace(p.Phone)
	if raw == "" {
		return ""
	}
	region := strings.ToUpper(p.Region)
	if region == "" {
		region = "JP"
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.NATIONAL)
}

// Lines returns the non-empty contact lines in print order.
func (p Profile) Lines() []string {
	var lines []string
	for _, l := range []string{p.Name, p.Address, p.DisplayPhone(), p.Email, p.Website} {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
