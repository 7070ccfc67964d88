package logger

import "go.uber.org/zap"

// 環境に合わせてzapロガーを作る（prodはJSON、それ以外は開発用）
func New(goEnv string) (*zap.Logger, error) {
	if goEnv == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
