package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"yashubustudio/ailian/detector"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

type uiState struct {
	service *detector.Service
	logger  *slog.Logger

	w          fyne.Window
	input      *widget.Entry
	log        *widget.Entry
	verdict    *widget.Label
	summary    *widget.Label
	breakdown  *widget.Label
	phrases    *widget.Label
	calibrator *widget.Label
	progress   *widget.ProgressBarInfinite
	statusBind binding.String

	detectBtn *widget.Button
	loadBtn   *widget.Button
	trainBtn  *widget.Button
}

func buildUI(a fyne.App, svc *detector.Service, logBind binding.String, logger *slog.Logger) *uiState {
	u := &uiState{service: svc, logger: logger}
	u.w = a.NewWindow("AILian - AI 작성 글 판별")

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("준비 완료")

	u.input = widget.NewMultiLineEntry()
	u.input.Wrapping = fyne.TextWrapWord
	u.input.SetPlaceHolder("판별할 글을 입력하세요")

	u.log = widget.NewEntryWithData(logBind)
	u.log.MultiLine = true
	u.log.Wrapping = fyne.TextWrapWord
	u.log.Disable()

	u.verdict = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	u.summary = widget.NewLabel("")
	u.breakdown = widget.NewLabel("")
	u.phrases = widget.NewLabel("")
	u.phrases.Wrapping = fyne.TextWrapWord
	u.calibrator = widget.NewLabel("")
	u.progress = widget.NewProgressBarInfinite()
	u.progress.Hide()

	u.detectBtn = widget.NewButtonWithIcon("판별", theme.ConfirmIcon(), func() { u.onDetect() })
	u.loadBtn = widget.NewButtonWithIcon("파일 열기", theme.FolderOpenIcon(), func() { u.onLoadFile() })
	u.trainBtn = widget.NewButtonWithIcon("보정기 학습", theme.ComputerIcon(), func() { u.onTrain() })
	clearBtn := widget.NewButtonWithIcon("지우기", theme.ContentClearIcon(), func() {
		u.input.SetText("")
		u.showResult(nil)
	})

	left := container.NewBorder(
		widget.NewLabelWithStyle("입력", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewVBox(
			container.NewGridWithColumns(4, u.detectBtn, u.loadBtn, u.trainBtn, clearBtn),
			u.progress,
			widget.NewLabelWithData(u.statusBind),
		),
		nil, nil,
		u.input,
	)
	right := container.NewVSplit(
		container.NewVBox(
			widget.NewLabelWithStyle("결과", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			u.verdict,
			u.summary,
			widget.NewSeparator(),
			u.breakdown,
			u.phrases,
			widget.NewSeparator(),
			u.calibrator,
		),
		container.NewBorder(
			widget.NewLabelWithStyle("로그", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			nil, nil, nil,
			u.log,
		),
	)
	right.Offset = 0.6

	split := container.NewHSplit(left, right)
	split.Offset = 0.55
	u.w.SetContent(split)
	u.w.Resize(fyne.NewSize(1100, 720))
	u.showResult(nil)
	u.refreshCalibrator()
	return u
}

func (u *uiState) setBusy(b bool) {
	fyne.Do(func() {
		for _, btn := range []*widget.Button{u.detectBtn, u.loadBtn, u.trainBtn} {
			if b {
				btn.Disable()
			} else {
				btn.Enable()
			}
		}
		if b {
			u.progress.Show()
			u.progress.Start()
		} else {
			u.progress.Stop()
			u.progress.Hide()
		}
	})
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) showResult(res *detector.Result) {
	if res == nil {
		u.verdict.SetText("")
		u.summary.SetText("글을 입력하고 판별을 누르세요")
		u.breakdown.SetText("")
		u.phrases.SetText("")
		return
	}
	u.verdict.SetText(verdictText(res.Verdict))
	u.summary.SetText(scoreSummary(*res))
	u.breakdown.SetText(breakdownText(res.Breakdown))
	u.phrases.SetText(phrasesText(res.Breakdown.Phrases))
}

func (u *uiState) refreshCalibrator() {
	text := "보정기: 없음 (가중 평균 사용)"
	if cal := u.service.Store().Current(); cal != nil {
		text = fmt.Sprintf("보정기: %s (%s)", cal.ID, cal.TrainedAt.Local().Format("2006-01-02 15:04"))
	}
	if u.service.Degraded() {
		text += "\n모델을 불러오지 못해 모델 점수는 중립값입니다"
	}
	u.calibrator.SetText(text)
}

func (u *uiState) onDetect() {
	text := strings.TrimSpace(u.input.Text)
	if text == "" {
		dialog.ShowInformation("안내", "입력한 글이 없습니다", u.w)
		return
	}
	u.setBusy(true)
	u.setStatus("판별 중...")
	start := time.Now()
	go func() {
		res := u.service.Detect(context.Background(), text)
		u.setBusy(false)
		u.setStatus(fmt.Sprintf("완료 (%.2fs)", time.Since(start).Seconds()))
		fyne.Do(func() {
			u.showResult(&res)
			u.refreshCalibrator()
		})
	}()
}

func (u *uiState) onLoadFile() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		if rc == nil {
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.input.SetText(strings.TrimPrefix(string(data), "\ufeff"))
		u.logger.Info("Loaded input file", "file", rc.URI().Name())
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".txt", ".md"}))
	fd.Show()
}

func (u *uiState) onTrain() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		if !isDatasetFile(path) {
			dialog.ShowError(fmt.Errorf("%w: %s", detector.ErrUnsupportedFormat, rc.URI().Name()), u.w)
			return
		}
		u.train(path)
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter(datasetExtensions))
	fd.Show()
}

func (u *uiState) train(path string) {
	u.setBusy(true)
	u.setStatus("보정기 학습 중...")
	go func() {
		var report strings.Builder
		res, err := u.service.Train(context.Background(), path, detector.DatasetOptions{}, &report)
		u.setBusy(false)
		if err != nil {
			u.setStatus("학습 실패")
			u.logger.Error("Training failed", "error", err)
			fyne.Do(func() { dialog.ShowError(err, u.w) })
			return
		}
		u.setStatus("학습 완료")
		fyne.Do(func() {
			u.refreshCalibrator()
			content := container.NewVBox(
				widget.NewLabel(trainingSummary(res, u.service.Store().Path())),
				widget.NewLabelWithStyle(report.String(), fyne.TextAlignLeading, fyne.TextStyle{Monospace: true}),
			)
			dialog.ShowCustom("학습 결과", "닫기", content, u.w)
		})
	}()
}
