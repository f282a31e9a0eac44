package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/logger"
)

// 固定的声音参数
const (
	LanguageCode = "en-GB"
	VoiceName    = "en-GB-Neural2-D"
	SpeakingRate = 0.9
	Pitch        = -2.0
)

// ErrNoCredentials 凭据缺少 private_key，语音合成不可用
var ErrNoCredentials = errors.New("speech: credentials missing private_key")

// ttsAPI 是 texttospeech.Client 中用到的部分
type ttsAPI interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

// Synthesizer Google Cloud Text-to-Speech 客户端
type Synthesizer struct {
	api     ttsAPI
	timeout time.Duration
}

type serviceAccount struct {
	PrivateKey string `json:"private_key"`
}

// HasPrivateKey 判断凭据 JSON 是否带有 private_key
func HasPrivateKey(credentials string) bool {
	if credentials == "" {
		return false
	}
	var sa serviceAccount
	if err := json.Unmarshal([]byte(credentials), &sa); err != nil {
		return false
	}
	return sa.PrivateKey != ""
}

// New 使用服务账号 JSON 创建语音合成客户端
func New(ctx context.Context, credentials string, timeout time.Duration) (*Synthesizer, error) {
	if !HasPrivateKey(credentials) {
		return nil, ErrNoCredentials
	}
	client, err := texttospeech.NewClient(ctx, option.WithCredentialsJSON([]byte(credentials)))
	if err != nil {
		return nil, fmt.Errorf("create tts client: %w", err)
	}
	return &Synthesizer{api: client, timeout: timeout}, nil
}

// Synthesize 将文本合成为 MP3
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.api.SynthesizeSpeech(ctx, NewRequest(text))
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	if len(resp.GetAudioContent()) == 0 {
		return nil, errors.New("synthesize speech: empty audio")
	}
	logger.Log.Debugf("语音合成完成: %d bytes", len(resp.GetAudioContent()))
	return resp.GetAudioContent(), nil
}

// Close 释放底层连接
func (s *Synthesizer) Close() error {
	return s.api.Close()
}

// NewRequest 构造固定声音参数的合成请求
func NewRequest(text string) *texttospeechpb.SynthesizeSpeechRequest {
	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: LanguageCode,
			Name:         VoiceName,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_MALE,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  SpeakingRate,
			Pitch:         Pitch,
		},
	}
}
