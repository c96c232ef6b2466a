package tgbot

import (
	"context"
	"log/slog"
	"strconv"

	"classbourse/config"
	"classbourse/internal/model"
	"classbourse/internal/transport/telegram"
	customMW "classbourse/internal/transport/telegram/middleware"
	"classbourse/utils"
	tele "gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/middleware"
)

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, chatSession model.Session) error
}

type TGBot struct {
	bot     *tele.Bot
	ctrl    *telegram.Controller
	session Session
}

func New(cfg *config.Config, ctrl *telegram.Controller, session Session) *TGBot {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Telegram.UpdTimeout},
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}

	return &TGBot{bot: b, ctrl: ctrl, session: session}
}

func (b *TGBot) Start() {
	b.bot.Use(middleware.Recover(), customMW.Logger())

	b.setupRoutes()

	go b.bot.Start()
	slog.Info("tgbot started!")
}

func (b *TGBot) Stop() {
	slog.Info("start stopping tgbot")
	b.bot.Stop()
	slog.Info("tgbot stopped")
}

func (b *TGBot) setupRoutes() {
	// free text is dispatched by the chat's conversation state
	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		ctx := utils.CreateCtxWithRqID(c)
		rqID := utils.GetRequestIDFromCtx(ctx)
		chatSession, err := b.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
		if err != nil {
			slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
			return c.Send("please /start first")
		}

		c.Set("session", chatSession)

		switch chatSession.State {
		case model.ExpectingUsername:
			return b.ctrl.ProcessLogin(c)
		case model.ExpectingBuyOrder:
			return b.ctrl.ProcessBuy(c)
		case model.ExpectingSellOrder:
			return b.ctrl.ProcessSell(c)
		case model.ExpectingPerformanceSymbol:
			return b.ctrl.ProcessPerformance(c)
		default:
			return c.Send("use one of the commands: /portfolio /buy /sell /history /performance /report /refresh")
		}
	})

	b.bot.Handle("/start", b.ctrl.Start)
	b.bot.Handle("/buy", b.ctrl.InitBuy)
	b.bot.Handle("/sell", b.ctrl.InitSell)
	b.bot.Handle("/portfolio", b.ctrl.Portfolio)
	b.bot.Handle("/history", b.ctrl.History)
	b.bot.Handle("/performance", b.ctrl.InitPerformance)
	b.bot.Handle("/report", b.ctrl.Report)
	b.bot.Handle("/reset", b.ctrl.Reset)
	b.bot.Handle("/refresh", b.ctrl.Refresh)
}
