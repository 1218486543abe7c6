package tencent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/regions"
	tmt "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tmt/v20180321"

	"lyricbridge/pkg/translate"
)

var _ translate.Translator = (*Client)(nil)

// Client 腾讯机器翻译客户端。批量接口保证返回顺序与输入一致。
type Client struct {
	tmtClient *tmt.Client
}

func NewClient(secretID, secretKey string) (*Client, error) {
	credential := common.NewCredential(secretID, secretKey)

	cpf := profile.NewClientProfile()
	cpf.HttpProfile.ReqMethod = "POST"
	cpf.HttpProfile.ReqTimeout = 10 // 秒

	tmtClient, err := tmt.NewClient(credential, regions.Guangzhou, cpf)
	if err != nil {
		log.Error().Err(err).Msg("new tencent tmt client error")
		return nil, err
	}
	return &Client{tmtClient: tmtClient}, nil
}

func (c *Client) Name() string {
	return "tencent"
}

func (c *Client) Translate(ctx context.Context, lines []string, targetLang string) ([]string, error) {
	request := tmt.NewTextTranslateBatchRequest()
	request.Source = common.StringPtr("auto")
	request.Target = common.StringPtr(targetLang)
	request.ProjectId = common.Int64Ptr(0)
	request.SourceTextList = common.StringPtrs(lines)

	response, err := c.tmtClient.TextTranslateBatchWithContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("tmt batch translate failed: %w", err)
	}

	out := make([]string, 0, len(response.Response.TargetTextList))
	for _, t := range response.Response.TargetTextList {
		if t == nil {
			out = append(out, "")
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}
