package utils

import "strings"

// avatarPalette 头像背景色盘（按用户名首字符取色，保证同名同色）
var avatarPalette = []string{
	"#6366F1", // indigo
	"#8B5CF6", // violet
	"#EC4899", // pink
	"#EF4444", // red
	"#F59E0B", // amber
	"#10B981", // emerald
	"#06B6D4", // cyan
	"#3B82F6", // blue
}

// AvatarColor 根据用户名首字符计算确定性的头像颜色
func AvatarColor(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return avatarPalette[0]
	}
	first := []rune(strings.ToLower(username))[0]
	return avatarPalette[int(first)%len(avatarPalette)]
}
