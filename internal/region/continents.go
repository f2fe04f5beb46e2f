// 包 region：大洲 → 国家名称注册表，用于把大洲选择展开为国家列表
package region

import (
	"sort"
	"strings"
)

// All 表示不按大洲过滤
const All = "All"

var continents = map[string][]string{
	"North America": {
		"United States", "Canada", "Mexico",
		"Guatemala", "Honduras", "El Salvador", "Nicaragua",
		"Costa Rica", "Panama",
		"Cuba", "Dominican Republic", "Haiti", "Jamaica",
		"Trinidad and Tobago", "Bahamas", "Barbados",
		"Saint Lucia", "Grenada", "Saint Vincent and the Grenadines",
		"Antigua and Barbuda", "Dominica", "Saint Kitts and Nevis",
		"Belize", "Bermuda", "British Virgin Islands", "Aruba", "Anguilla",
	},
	"South America": {
		"Brazil", "Argentina", "Colombia", "Peru", "Venezuela",
		"Chile", "Ecuador", "Bolivia", "Paraguay", "Uruguay",
		"Guyana", "Suriname", "French Guiana",
	},
	"Europe": {
		"Italy", "Spain", "France", "Poland", "Germany",
		"United Kingdom", "Portugal", "Netherlands", "Belgium",
		"Czech Republic", "Greece", "Hungary", "Austria", "Switzerland",
		"Sweden", "Romania", "Ireland", "Croatia", "Slovakia",
		"Lithuania", "Slovenia", "Latvia", "Estonia", "Luxembourg",
		"Malta", "Cyprus", "Denmark", "Finland", "Norway", "Iceland",
		"Albania", "Serbia", "Bosnia and Herzegovina", "North Macedonia",
		"Montenegro", "Moldova", "Ukraine", "Belarus", "Russia", "Bulgaria",
		"Andorra", "Liechtenstein", "Monaco", "San Marino", "Kosovo", "Vatican City",
	},
	"Asia": {
		"Philippines", "India", "China", "Indonesia", "Japan", "South Korea",
		"Vietnam", "Thailand", "Myanmar", "Sri Lanka", "Pakistan",
		"Bangladesh", "Malaysia", "Singapore", "Cambodia", "Laos",
		"East Timor", "Taiwan", "Hong Kong", "Macau", "Mongolia",
		"Kazakhstan", "Uzbekistan", "Turkmenistan", "Kyrgyzstan",
		"Tajikistan", "Afghanistan", "Nepal", "Bhutan", "Maldives",
		"Bahrain", "Brunei", "Cyprus", "Georgia", "Iran",
		"Iraq", "Israel", "Jordan", "Kuwait", "Lebanon", "North Korea",
		"Oman", "Qatar", "Saudi Arabia", "Syria", "Turkey",
		"United Arab Emirates", "Yemen", "Palestine",
	},
	"Africa": {
		"Nigeria", "Congo (DRC)", "Ethiopia", "Kenya", "Tanzania",
		"Uganda", "South Africa", "Ghana", "Madagascar", "Cameroon",
		"Angola", "Mozambique", "Malawi", "Zambia", "Zimbabwe",
		"Rwanda", "Burundi", "Benin", "Togo", "Burkina Faso", "Mali",
		"Niger", "Chad", "Central African Republic", "Gabon",
		"Equatorial Guinea", "Republic of the Congo", "Egypt", "Morocco",
		"Algeria", "Tunisia", "Libya", "Sudan", "South Sudan", "Somalia",
		"Eritrea", "Djibouti", "Mauritius", "Seychelles", "Cape Verde",
		"Sao Tome and Principe", "Comoros", "Lesotho", "Eswatini",
		"Botswana", "Namibia", "Mauritania", "Senegal", "Gambia",
		"Guinea-Bissau", "Guinea", "Sierra Leone", "Liberia", "Ivory Coast",
		"Cabo Verde", "Western Sahara", "Mayotte", "Saint Helena",
	},
	"Oceania": {
		"Australia", "New Zealand", "Papua New Guinea", "Fiji",
		"Solomon Islands", "Vanuatu", "Samoa", "Kiribati", "Micronesia",
		"Tonga", "Palau", "Marshall Islands", "Nauru", "Tuvalu",
		"New Caledonia", "French Polynesia", "Guam", "Northern Mariana Islands",
	},
}

// Continents 大洲名称（字母序，不含 All）
func Continents() []string {
	out := make([]string, 0, len(continents))
	for k := range continents {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Countries 大洲下的国家；未知大洲返回 nil
func Countries(continent string) []string {
	cs, ok := continents[continent]
	if !ok {
		return nil
	}
	out := make([]string, len(cs))
	copy(out, cs)
	return out
}

// Filter 按大洲过滤国家列表；continent 为空或 All 时原样返回，未知大洲得到空列表
func Filter(all []string, continent string) []string {
	if continent == "" || continent == All {
		return all
	}
	members := make(map[string]struct{})
	for _, c := range continents[continent] {
		members[c] = struct{}{}
	}
	var out []string
	for _, c := range all {
		if _, ok := members[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Match 国家名称模糊过滤（大小写无关子串）
func Match(all []string, query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	var out []string
	for _, c := range all {
		if strings.Contains(strings.ToLower(c), q) {
			out = append(out, c)
		}
	}
	return out
}
