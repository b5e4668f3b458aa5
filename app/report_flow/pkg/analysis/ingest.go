package analysis

import (
	"context"
	"time"

	"github.com/go-shiori/go-readability"
)

// Attachment 随抽取请求一起发送的文件
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// Fetcher 把 URL 抓取为纯文本
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ReadabilityFetcher 使用 go-readability 提取页面正文
type ReadabilityFetcher struct {
	Timeout time.Duration
}

// Fetch 实现 Fetcher
func (f ReadabilityFetcher) Fetch(ctx context.Context, url string) (string, error) {
	timeout := f.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	article, err := readability.FromURL(url, timeout)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}
