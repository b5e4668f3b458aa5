package conf

type Bootstrap struct {
	Server *Server
	App    *App
}

type Server struct {
	Http *HTTP
}

type HTTP struct {
	Addr    string
	Timeout string
}

type App struct {
	Llm         *LLM         `json:"llm"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
	Store       *Store       `json:"store"`
	Tracking    *Tracking    `json:"tracking"`
	Chat        *Chat        `json:"chat"`
	History     *History     `json:"history"`
}

type LLM struct {
	BaseUrl string `json:"base_url"`
	ApiKey  string `json:"api_key"`
	Model   string `json:"model"`
	Timeout string `json:"timeout"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}

type Store struct {
	Driver   string    `json:"driver"`
	Key      string    `json:"key"`
	Dir      string    `json:"dir"`
	Postgres *Postgres `json:"postgres"`
	Redis    *Redis    `json:"redis"`
	Mongo    *Mongo    `json:"mongo"`
}

type Postgres struct {
	Host     string `json:"host"`
	Port     int32  `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type Redis struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	Db       int32  `json:"db"`
}

type Mongo struct {
	Uri        string `json:"uri"`
	Database   string `json:"database"`
	Collection string `json:"collection"`
}

type Tracking struct {
	HistoryLimit int32 `json:"history_limit"`
}

type Chat struct {
	HistoryTurns int32 `json:"history_turns"`
}

type History struct {
	ConfirmDelete bool `json:"confirm_delete"`
}
