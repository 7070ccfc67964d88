package model

import (
	"strings"
	"time"
)

// ログイン1回につき1行
type UserAccessLog struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64     `gorm:"not null;index:idx_access_user_time,priority:1" json:"user_id"`
	IPAddress  string    `gorm:"type:varchar(64)" json:"ip_address"`
	DeviceType string    `gorm:"type:varchar(50)" json:"device_type"`
	Browser    string    `gorm:"type:varchar(50)" json:"browser"`
	OS         string    `gorm:"type:varchar(50)" json:"os"`
	UserAgent  string    `gorm:"type:text" json:"user_agent"`
	LoginAt    time.Time `gorm:"not null;index:idx_access_user_time,priority:2;index:idx_access_login_at" json:"login_at"`
}

const (
	DeviceMobile = "Mobile"
	DeviceTablet = "Tablet"
	DevicePC     = "PC"
	DeviceBot    = "Bot"
	UAOther      = "Other"
)

type UserAgentInfo struct {
	Device  string
	Browser string
	OS      string
}

func NewUserAccessLog(userID int64, ip string, userAgent string, at time.Time) UserAccessLog {
	info := ParseUserAgent(userAgent)
	return UserAccessLog{
		UserID:     userID,
		IPAddress:  ip,
		DeviceType: info.Device,
		Browser:    info.Browser,
		OS:         info.OS,
		UserAgent:  userAgent,
		LoginAt:    at,
	}
}

// 判定順が大事（EdgeとOperaはChromeを、ChromeはSafariを名乗る）
var browserRules = []struct{ token, name string }{
	{"edg/", "Edge"},
	{"edge/", "Edge"},
	{"opr/", "Opera"},
	{"opera", "Opera"},
	{"samsungbrowser/", "Samsung Internet"},
	{"firefox/", "Firefox"},
	{"fxios/", "Firefox"},
	{"crios/", "Chrome"},
	{"chrome/", "Chrome"},
	{"safari/", "Safari"},
	{"msie ", "IE"},
	{"trident/", "IE"},
	{"curl/", "curl"},
}

var osRules = []struct{ token, name string }{
	{"windows", "Windows"},
	{"android", "Android"},
	{"iphone", "iOS"},
	{"ipad", "iOS"},
	{"ipod", "iOS"},
	{"cros ", "Chrome OS"},
	{"mac os x", "Mac OS X"},
	{"macintosh", "Mac OS X"},
	{"linux", "Linux"},
}

// UAを大まかに分類する。分からなければOther
func ParseUserAgent(ua string) UserAgentInfo {
	s := strings.ToLower(ua)
	info := UserAgentInfo{Device: UAOther, Browser: UAOther, OS: UAOther}
	if strings.TrimSpace(s) == "" {
		return info
	}

	for _, r := range browserRules {
		if strings.Contains(s, r.token) {
			info.Browser = r.name
			break
		}
	}
	for _, r := range osRules {
		if strings.Contains(s, r.token) {
			info.OS = r.name
			break
		}
	}

	switch {
	case strings.Contains(s, "bot") || strings.Contains(s, "crawler") || strings.Contains(s, "spider"):
		info.Device = DeviceBot
	case strings.Contains(s, "ipad") || strings.Contains(s, "tablet"):
		info.Device = DeviceTablet
	case strings.Contains(s, "android") && !strings.Contains(s, "mobile"):
		info.Device = DeviceTablet
	case strings.Contains(s, "mobi") || strings.Contains(s, "iphone") || strings.Contains(s, "ipod"):
		info.Device = DeviceMobile
	case info.OS == "Windows" || info.OS == "Mac OS X" || info.OS == "Linux" || info.OS == "Chrome OS":
		info.Device = DevicePC
	}
	return info
}
