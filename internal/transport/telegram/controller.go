package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"classbourse/config"
	"classbourse/data/session"
	"classbourse/internal/converter/telebotConverter"
	"classbourse/internal/model"
	"classbourse/internal/service"
	"classbourse/utils"
	tele "gopkg.in/telebot.v4"
)

const internalErrMsg = "something went wrong, try again later"

type LedgerService interface {
	Buy(ctx context.Context, username, symbol string, shares int) (model.TradeConfirmation, error)
	Sell(ctx context.Context, username, symbol string, shares int) (model.TradeConfirmation, error)
	Valuation(ctx context.Context, username string) (model.ValuationSnapshot, error)
	History(ctx context.Context, username string) ([]model.Transaction, error)
	PerformanceWindow(ctx context.Context, symbol string) model.PerformanceWindow
	Reset(ctx context.Context, username string) error
	RefreshPortfolios(ctx context.Context) error
	BuildReport(ctx context.Context, username string) (fileBytes []byte, fileExtension string, err error)
	HasUser(username string) bool
}

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, chatSession model.Session) error
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
}

type Controller struct {
	cfg          *config.Config
	ledger       LedgerService
	session      Session
	cloudStorage CloudStorage
}

func NewController(cfg *config.Config, ledger LedgerService, sess Session, cloudStorage CloudStorage) *Controller {
	return &Controller{
		cfg:          cfg,
		ledger:       ledger,
		session:      sess,
		cloudStorage: cloudStorage,
	}
}

func (ctrl *Controller) Start(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return c.Send(internalErrMsg)
	}

	if chatSession.LoggedIn() {
		return c.Send(fmt.Sprintf("Hello %s! Use /portfolio, /buy, /sell, /history", chatSession.Username))
	}

	chatSession.State = model.ExpectingUsername
	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Welcome to the class bourse! Enter your username:")
}

func (ctrl *Controller) ProcessLogin(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return c.Send(internalErrMsg)
	}

	username := strings.TrimSpace(c.Message().Text)
	if !ctrl.ledger.HasUser(username) {
		return c.Send("Unknown username, ask your teacher to register you and try again:")
	}

	chatSession.State = model.DefaultState
	chatSession.Username = username
	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send(fmt.Sprintf("Logged in as %s. Use /portfolio to see your holdings", username))
}

func (ctrl *Controller) InitBuy(c tele.Context) error {
	return ctrl.initOrder(c, model.ExpectingBuyOrder, "What to buy? Send: SYMBOL QUANTITY (e.g. AAPL 2)")
}

func (ctrl *Controller) InitSell(c tele.Context) error {
	return ctrl.initOrder(c, model.ExpectingSellOrder, "What to sell? Send: SYMBOL QUANTITY (e.g. AAPL 1)")
}

func (ctrl *Controller) initOrder(c tele.Context, nextState model.SessionState, prompt string) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, ok := ctrl.requireLogin(ctx, c)
	if !ok {
		return nil
	}

	chatSession.State = nextState
	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send(prompt)
}

func (ctrl *Controller) ProcessBuy(c tele.Context) error {
	return ctrl.processOrder(c, model.ActionBuy)
}

func (ctrl *Controller) ProcessSell(c tele.Context) error {
	return ctrl.processOrder(c, model.ActionSell)
}

func (ctrl *Controller) processOrder(c tele.Context, action string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, ok := ctrl.requireLogin(ctx, c)
	if !ok {
		return nil
	}

	chatSession.State = model.DefaultState
	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	symbol, shares, err := parseOrder(c.Message().Text)
	if err != nil {
		return c.Send("Can't read the order. Send: SYMBOL QUANTITY (e.g. AAPL 2)")
	}

	var conf model.TradeConfirmation
	if action == model.ActionBuy {
		conf, err = ctrl.ledger.Buy(ctx, chatSession.Username, symbol, shares)
	} else {
		conf, err = ctrl.ledger.Sell(ctx, chatSession.Username, symbol, shares)
	}

	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			// trade committed in memory, durability is best-effort
			return c.Send(telebotConverter.TradeConfirmationResponse(conf) + "\n\n⚠️ saving to the class sheet failed, the trade may be lost on restart")
		}
		slog.Warn("trade rejected", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(rejectionMessage(err))
	}

	return c.Send(telebotConverter.TradeConfirmationResponse(conf))
}

func (ctrl *Controller) Portfolio(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, ok := ctrl.requireLogin(ctx, c)
	if !ok {
		return nil
	}

	snapshot, err := ctrl.ledger.Valuation(ctx, chatSession.Username)
	if err != nil {
		slog.Error("got error from ledger.Valuation", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send(telebotConverter.ValuationResponse(snapshot))
}

func (ctrl *Controller) History(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, ok := ctrl.requireLogin(ctx, c)
	if !ok {
		return nil
	}

	history, err := ctrl.ledger.History(ctx, chatSession.Username)
	if err != nil {
		slog.Error("got error from ledger.History", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send(telebotConverter.HistoryResponse(history))
}

func (ctrl *Controller) InitPerformance(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, ok := ctrl.requireLogin(ctx, c)
	if !ok {
		return nil
	}

	chatSession.State = model.ExpectingPerformanceSymbol
	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Which symbol?")
}

func (ctrl *Controller) ProcessPerformance(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, ok := ctrl.requireLogin(ctx, c)
	if !ok {
		return nil
	}

	chatSession.State = model.DefaultState
	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	symbol := strings.ToUpper(strings.TrimSpace(c.Message().Text))
	perf := ctrl.ledger.PerformanceWindow(ctx, symbol)

	return c.Send(telebotConverter.PerformanceResponse(perf))
}

func (ctrl *Controller) Report(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, ok := ctrl.requireLogin(ctx, c)
	if !ok {
		return nil
	}

	fileBytes, ext, err := ctrl.ledger.BuildReport(ctx, chatSession.Username)
	if err != nil {
		slog.Error("got error from ledger.BuildReport", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	filename := fmt.Sprintf("%s_%s%s", chatSession.Username, time.Now().Format("2006-01-02"), ext)

	if len(fileBytes) > ctrl.cfg.Telegram.FileLimitInBytes {
		link, err := ctrl.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
		if err != nil {
			slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("err", err.Error()))
			return c.Send(internalErrMsg)
		}
		return c.Send("The report is too big for telegram, download it here: " + link)
	}

	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(fileBytes)),
		FileName: filename,
	}

	return c.Send(doc)
}

func (ctrl *Controller) Reset(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, ok := ctrl.requireLogin(ctx, c)
	if !ok {
		return nil
	}

	err := ctrl.ledger.Reset(ctx, chatSession.Username)
	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			return c.Send("Portfolio reset, but saving to the class sheet failed")
		}
		slog.Error("got error from ledger.Reset", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send("Portfolio reset to the starting balance")
}

func (ctrl *Controller) Refresh(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	if err := ctrl.ledger.RefreshPortfolios(ctx); err != nil {
		slog.Error("got error from ledger.RefreshPortfolios", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send("Can't reach the class sheet right now")
	}

	return c.Send("Portfolios reloaded from the class sheet")
}

func (ctrl *Controller) requireLogin(ctx context.Context, c tele.Context) (model.Session, bool) {
	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		_ = c.Send(internalErrMsg)
		return model.Session{}, false
	}

	if !chatSession.LoggedIn() {
		_ = c.Send("Please /start and log in first")
		return model.Session{}, false
	}

	return chatSession, true
}

func (ctrl *Controller) getSessionFromTeleCtxOrStorage(ctx context.Context, c tele.Context) (model.Session, error) {
	chatSession, ok := c.Get("session").(model.Session)
	if ok {
		return chatSession, nil
	}

	rqID := utils.GetRequestIDFromCtx(ctx)
	chatSession, err := ctrl.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		}
		return model.Session{}, err
	}
	return chatSession, nil
}

func (ctrl *Controller) setSession(ctx context.Context, c tele.Context, chatSession model.Session) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	err := ctrl.session.SetSession(ctx, strconv.FormatInt(c.Chat().ID, 10), chatSession)
	if err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
	}
	return err
}

func parseOrder(text string) (symbol string, shares int, err error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) != 2 {
		return "", 0, errors.New("expected symbol and quantity")
	}

	shares, err = strconv.Atoi(fields[1])
	if err != nil || shares <= 0 {
		return "", 0, errors.New("quantity must be a positive integer")
	}

	return strings.ToUpper(fields[0]), shares, nil
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrUnknownSymbol):
		return "Can't find that symbol"
	case errors.Is(err, service.ErrPriceUnavailable):
		return "No price available right now, try again later"
	case errors.Is(err, service.ErrUserUnprovisioned):
		return "You don't have a portfolio yet, ask your teacher"
	case errors.Is(err, model.ErrInvalidQuantity):
		return "Quantity must be a positive number of shares"
	case errors.Is(err, model.ErrInsufficientFunds):
		return "Not enough cash for this trade"
	case errors.Is(err, model.ErrNoSuchPosition):
		return "You don't hold that stock"
	case errors.Is(err, model.ErrInsufficientShares):
		return "You don't hold that many shares"
	default:
		return internalErrMsg
	}
}
