package utils

import "strings"

// UntitledName 无有效字符时使用的文件名
const UntitledName = "untitled_model"

// invalidFileChar 判断字符是否不能出现在文件名中（按最严格的平台规则）。
func invalidFileChar(r rune) bool {
	if r < 0x20 {
		return true
	}
	return strings.ContainsRune(`"<>|:*?\/`, r)
}

// SanitizeFileName 将模型名转换为安全的文件名。
// 连续的非法字符只替换为一个 replacement，结果去掉首尾的 replacement。
func SanitizeFileName(input string, replacement rune) string {
	if strings.TrimSpace(input) == "" {
		return UntitledName
	}
	var sb strings.Builder
	replaced := false
	for _, r := range input {
		if invalidFileChar(r) {
			if !replaced {
				sb.WriteRune(replacement)
				replaced = true
			}
			continue
		}
		sb.WriteRune(r)
		replaced = false
	}
	sanitized := sb.String()
	if strings.TrimSpace(strings.ReplaceAll(sanitized, string(replacement), "")) == "" {
		return UntitledName
	}
	return strings.Trim(sanitized, string(replacement))
}
