package rds

// Program type names as used in Europe (RDS).
var ptyRDS = [32]string{
	"None", "News", "Current Affairs", "Information",
	"Sport", "Education", "Drama", "Culture",
	"Science", "Varied", "Pop Music", "Rock Music",
	"Easy Listening", "Light Classical", "Serious Classical", "Other Music",
	"Weather", "Finance", "Children's Programs", "Social Affairs",
	"Religion", "Phone-In", "Travel", "Leisure",
	"Jazz Music", "Country Music", "National Music", "Oldies Music",
	"Folk Music", "Documentary", "Alarm Test", "Alarm",
}

// Program type names as used in North America (RBDS).
var ptyRBDS = [32]string{
	"None", "News", "Information", "Sports",
	"Talk", "Rock", "Classic Rock", "Adult Hits",
	"Soft Rock", "Top 40", "Country", "Oldies",
	"Soft", "Nostalgia", "Jazz", "Classical",
	"Rhythm and Blues", "Soft Rhythm and Blues", "Language", "Religious Music",
	"Religious Talk", "Personality", "Public", "College",
	"Unassigned 24", "Unassigned 25", "Unassigned 26", "Unassigned 27",
	"Unassigned 28", "Weather", "Emergency Test", "Emergency",
}

// PTYName returns the name of a program type code.
func PTYName(pty uint8, rbds bool) string {
	if rbds {
		return ptyRBDS[pty&0x1f]
	}
	return ptyRDS[pty&0x1f]
}

var groupTypesA = [16]string{
	"Basic Tuning and Switching Information",
	"Program Item Number and Slow Labeling Codes",
	"Radio Text",
	"Applications Identification for ODA",
	"Clock Time and Date",
	"Transparent Data Channels or ODA",
	"In-House Applications or ODA",
	"Radio Paging or ODA",
	"Traffic Message Channel or ODA",
	"Emergency Warning System or ODA",
	"Program Type Name",
	"Open Data Applications",
	"Open Data Applications",
	"Enhanced Radio Paging or ODA",
	"Enhanced Other Networks Information",
	"Defined in RBDS only",
}

var groupTypesB = [16]string{
	"Basic Tuning and Switching Information",
	"Program Item Number",
	"Radio Text",
	"Open Data Applications",
	"Open Data Applications",
	"Transparent Data Channels or ODA",
	"In-House Applications or ODA",
	"Radio Paging or ODA",
	"Open Data Applications",
	"Open Data Applications",
	"Open Data Applications",
	"Open Data Applications",
	"Open Data Applications",
	"Open Data Applications",
	"Enhanced Other Networks Information",
	"Fast Switching Information",
}

// GroupTypeName describes what a group type carries.
func GroupTypeName(typ int, versionB bool) string {
	if versionB {
		return groupTypesB[typ&0xf]
	}
	return groupTypesA[typ&0xf]
}

// CallSign derives the four letter call sign of a North American station
// from its PI code. It returns "" when the PI code does not encode one.
func CallSign(pi uint16) string {
	// See: U.S. RBDS Standard - April 1998, annex D
	if pi < 4096 || pi > 39247 {
		return ""
	}
	cs := []byte{'K', 0, 0, 0}
	n := pi - 4096
	if pi >= 21672 {
		cs[0] = 'W'
		n = pi - 21672
	}
	cs[1] = 'A' + byte(n/676)
	n %= 676
	cs[2] = 'A' + byte(n/26)
	cs[3] = 'A' + byte(n%26)
	return string(cs)
}
