package clients

import (
	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/jimlawless/whereami"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// maxEncoderMsgSize ограничивает сообщение энкодера: изображение до 10 МБ плюс запас.
const maxEncoderMsgSize = 16 << 20

// NewEncoderConn создаёт соединение с сервисом эмбеддингов. Подключение ленивое,
// доступность проверяется через health-сервис.
func NewEncoderConn(cfg *cfg.MLServiceCfg) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(
		cfg.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(maxEncoderMsgSize),
			grpc.MaxCallRecvMsgSize(maxEncoderMsgSize),
		),
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return conn, nil
}
