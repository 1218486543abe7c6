package music

import "errors"

// 提供商错误按类别区分，调用方通过 errors.Is 判断是否重试、
// 上报给用户还是静默跳过。适配器内部不做重试。
var (
	// ErrNetwork 网络不可达或请求超时
	ErrNetwork = errors.New("provider network error")
	// ErrProviderRejected 非200响应或提供商返回错误码
	ErrProviderRejected = errors.New("provider rejected request")
	// ErrNoLyric 歌曲存在但没有任何歌词数据
	ErrNoLyric = errors.New("no lyric available")
)
