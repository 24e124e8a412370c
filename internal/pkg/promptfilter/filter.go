package promptfilter

import (
	"fmt"
	"strings"

	"github.com/go-ego/gse"
)

// Filter 提示词内容过滤器
// 图片生成服务对提示词内容有审核，提交前先移除违禁词并替换敏感词
type Filter struct {
	seg gse.Segmenter

	// 违禁词（直接移除）
	forbiddenWords map[string]bool

	// 敏感词替换映射
	wordReplacements map[string]string
}

// New 创建内容过滤器
// 加载 gse 默认词典用于分词，词典加载失败时返回错误
func New() (*Filter, error) {
	f := &Filter{
		forbiddenWords: map[string]bool{
			"血腥": true,
			"暴力": true,
			"色情": true,
			"毒品": true,
			"裸体": true,
			"恐怖": true,
		},
		wordReplacements: map[string]string{
			"尸体": "人形",
			"武器": "道具",
			"枪":  "玩具",
			"刀":  "木棒",
			"死":  "倒下",
		},
	}

	if err := f.seg.LoadDict(); err != nil {
		return nil, err
	}

	return f, nil
}

// styleSuffixFormat 风格后缀，%s 为风格提示
// 描述模型的指令也会要求带上同样的后缀，但模型不保证遵守，这里兜底补齐
const styleSuffixFormat = "%s风格，画面干净，细节丰富"

// Clean 清洗提示词
// 分词后移除违禁词、应用替换映射，再拼回原文；style 非空时补齐风格后缀
func (f *Filter) Clean(prompt, style string) string {
	if prompt == "" {
		return ""
	}

	words := f.seg.Cut(prompt, true)

	var b strings.Builder
	b.Grow(len(prompt))
	for _, w := range words {
		if f.forbiddenWords[w] {
			continue
		}
		if repl, ok := f.wordReplacements[w]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteString(w)
	}

	cleaned := b.String()
	if cleaned == "" {
		return ""
	}

	// 已带风格后缀（模型遵守了指令）就不重复追加
	if style != "" && !strings.Contains(cleaned, style+"风格") {
		cleaned = cleaned + "，" + fmt.Sprintf(styleSuffixFormat, style)
	}

	return cleaned
}

// ContainsForbidden 检查提示词是否包含违禁词
func (f *Filter) ContainsForbidden(prompt string) bool {
	for _, w := range f.seg.Cut(prompt, true) {
		if f.forbiddenWords[w] {
			return true
		}
	}
	return false
}
