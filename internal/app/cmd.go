package app

// Command は studyabroad バイナリのサブコマンド。
//
//	serve       REST APIを起動する(既定)
//	migrate     スキーマのマイグレーションだけを適用して終了する
//	healthcheck 稼働中の /health を叩いて終了コードで結果を返す
type Command string

const (
	// CommandServe はREST APIサーバーを起動する。スキーマは適用済みであることを前提とする。
	CommandServe Command = "serve"
	// CommandMigrate は未適用のマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はローカルの /health を確認する。
	// シェルを持たないdistrolessイメージのHEALTHCHECKから呼ぶため、設定の読み込みやDB接続は行わない。
	CommandHealthcheck Command = "healthcheck"
)

// knownCommands はParseCommandが受け付けるサブコマンド。
var knownCommands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand はos.Args[1:]の先頭からサブコマンドを決める。
// 2番目以降の引数は見ない。引数なしや未知の名前はserveとして扱う。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := knownCommands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
