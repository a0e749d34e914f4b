package app

import "github.com/charmbracelet/lipgloss"

const (
	chatBubblePaddingVertical   = 0
	chatBubblePaddingHorizontal = 1
)

var (
	headerStyle              = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	headerMetaStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle                = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle              = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	queueStyle               = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Bold(true)
	activityStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Bold(true)
	dividerStyle             = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	userBubbleStyle          = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Background(lipgloss.Color("236")).Padding(chatBubblePaddingVertical, chatBubblePaddingHorizontal)
	agentBubbleStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(chatBubblePaddingVertical, chatBubblePaddingHorizontal)
	errorBubbleStyle         = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("160")).Foreground(lipgloss.Color("203")).Padding(chatBubblePaddingVertical, chatBubblePaddingHorizontal)
	noticeStyle              = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	chatMetaStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)
	disabledInputStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	inputPromptStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	toastInfoStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("29")).Bold(true)
	toastWarningStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("136")).Bold(true)
	toastErrorStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160")).Bold(true)
)
