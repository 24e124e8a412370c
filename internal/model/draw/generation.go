package draw

import "time"

// 生成来源
const (
	SourceLocal   = "local"   // 本地流水线生成
	SourceGateway = "gateway" // 远程函数委托生成
)

// Generation 一次风格化生成记录
type Generation struct {
	ID        string    `bson:"_id" json:"id"`                            // 记录ID（UUID）
	UserID    string    `bson:"user_id,omitempty" json:"user_id,omitempty"` // 用户ID（可选）
	Style     string    `bson:"style" json:"style"`                       // 风格提示
	Prompt    string    `bson:"prompt" json:"prompt"`                     // 生成使用的描述提示词
	ImageURL  string    `bson:"image_url" json:"image_url"`               // 存储URL（未存储时为空）
	Source    string    `bson:"source" json:"source"`                     // local / gateway
	CreatedAt time.Time `bson:"created_at" json:"created_at"`             // 创建时间
}
