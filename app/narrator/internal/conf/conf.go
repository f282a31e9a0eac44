package conf

type Bootstrap struct {
	Server   *Server
	Data     *Data
	Narrator *Narrator
}

type Server struct {
	Http *HTTP
}

type HTTP struct {
	Addr    string
	Timeout string
}

type Data struct {
	Database *Database
}

type Database struct {
	Driver string
	Source string
}

type Narrator struct {
	Llm          *LLM         `json:"llm"`
	Speech       *Speech      `json:"speech"`
	PriceFeed    *PriceFeed   `json:"price_feed"`
	DefaultToken string       `json:"default_token"`
	AudioDefault *bool        `json:"audio_default"`
	Log          *Log         `json:"log"`
	Concurrency  *Concurrency `json:"concurrency"`
}

type LLM struct {
	BaseUrl string `json:"base_url"`
	ApiKey  string `json:"api_key"`
	Model   string `json:"model"`
	Timeout int32  `json:"timeout"`
}

type Speech struct {
	Credentials string `json:"credentials"`
	Timeout     int32  `json:"timeout"`
}

type PriceFeed struct {
	BaseUrl string `json:"base_url"`
	Timeout int32  `json:"timeout"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}
