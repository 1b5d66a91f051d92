package scan

import "regexp"

// Category classifies the kind of injection cue a pattern covers.
type Category int

const (
	CategoryUnspecified Category = iota
	CategoryInstructionOverride  // instruction_override
	CategoryFakeSystemMessage    // fake_system_message
	CategoryRoleManipulation     // role_manipulation
	CategoryConcealmentDirective // concealment_directive
	CategoryToolCoercion         // tool_coercion
	CategoryCommandSmuggling     // command_smuggling
	CategoryExfilDirective       // exfil_directive
	CategoryCredentialHarvest    // credential_harvest
)

// String returns the snake_case category name.
func (c Category) String() string {
	switch c {
	case CategoryInstructionOverride:
		return "INSTRUCTION_OVERRIDE"
	case CategoryFakeSystemMessage:
		return "FAKE_SYSTEM_MESSAGE"
	case CategoryRoleManipulation:
		return "ROLE_MANIPULATION"
	case CategoryConcealmentDirective:
		return "CONCEALMENT_DIRECTIVE"
	case CategoryToolCoercion:
		return "TOOL_COERCION"
	case CategoryCommandSmuggling:
		return "COMMAND_SMUGGLING"
	case CategoryExfilDirective:
		return "EXFIL_DIRECTIVE"
	case CategoryCredentialHarvest:
		return "CREDENTIAL_HARVEST"
	default:
		return "UNSPECIFIED"
	}
}

// RiskType is the collapsed risk classification used by the redactor's
// placeholders. Eight categories map onto three risk types.
type RiskType int

const (
	RiskPromptInjection RiskType = iota + 1
	RiskDataExfiltration
	RiskCommandExecution
)

func (r RiskType) String() string {
	switch r {
	case RiskPromptInjection:
		return "PROMPT_INJECTION"
	case RiskDataExfiltration:
		return "DATA_EXFILTRATION"
	case RiskCommandExecution:
		return "COMMAND_EXECUTION"
	default:
		return "PROMPT_INJECTION"
	}
}

// RiskTypeFor returns the fixed category→risk-type collapse shared by the
// scanner and redactor.
func RiskTypeFor(c Category) RiskType {
	switch c {
	case CategoryToolCoercion, CategoryCommandSmuggling:
		return RiskCommandExecution
	case CategoryExfilDirective, CategoryCredentialHarvest:
		return RiskDataExfiltration
	default:
		return RiskPromptInjection
	}
}

// Confidence grades how unambiguous a pattern is on its own.
type Confidence int

const (
	ConfidenceMedium Confidence = iota + 1
	ConfidenceHigh
)

func (c Confidence) String() string {
	if c == ConfidenceHigh {
		return "high"
	}
	return "medium"
}

// Pattern is one entry in the shared injection pattern table.
type Pattern struct {
	Re         *regexp.Regexp
	Label      string
	Category   Category
	Confidence Confidence
}

// Patterns is the single ordered pattern table consumed by both the scanner
// and the redactor. Sharing one table keeps the two taxonomies from drifting.
//
// Pre-compiled at startup, never during a request.
var Patterns = []Pattern{
	// Instruction override
	{regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above|earlier)\s+(instructions|directions|prompts|rules)`), "ignore previous instructions", CategoryInstructionOverride, ConfidenceHigh},
	{regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+(instructions|rules|guidelines)`), "disregard instructions", CategoryInstructionOverride, ConfidenceHigh},
	{regexp.MustCompile(`(?i)forget\s+(everything|all)\s+(you|above|previous)`), "forget everything", CategoryInstructionOverride, ConfidenceHigh},
	{regexp.MustCompile(`(?i)new\s+instructions?\s*:`), "new instructions marker", CategoryInstructionOverride, ConfidenceMedium},
	{regexp.MustCompile(`(?i)override\s+(your|the|all)\s+(instructions|rules|safety|system\s+prompt)`), "override instructions", CategoryInstructionOverride, ConfidenceHigh},

	// Fake system / authority framing
	{regexp.MustCompile(`(?i)system\s+(alert|notice|warning|override)\s*:`), "fake system alert", CategoryFakeSystemMessage, ConfidenceHigh},
	{regexp.MustCompile(`(?i)\[\s*system\s*\]`), "[SYSTEM] tag", CategoryFakeSystemMessage, ConfidenceHigh},
	{regexp.MustCompile(`(?i)<\|im_start\|>\s*system`), "ChatML system tag", CategoryFakeSystemMessage, ConfidenceHigh},
	{regexp.MustCompile(`(?i)###\s*(system|admin)\s+(message|instruction|note)`), "markdown system header", CategoryFakeSystemMessage, ConfidenceMedium},
	{regexp.MustCompile(`(?i)this\s+is\s+(your|the)\s+(system|administrator|operator)\s+speaking`), "authority impersonation", CategoryFakeSystemMessage, ConfidenceMedium},

	// Role manipulation
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|the|in)\b`), "you are now", CategoryRoleManipulation, ConfidenceMedium},
	{regexp.MustCompile(`(?i)from\s+now\s+on\s+you\s+(are|will|must|should)`), "from now on", CategoryRoleManipulation, ConfidenceMedium},
	{regexp.MustCompile(`(?i)your\s+new\s+(role|identity|persona|task)\s+(is|will\s+be)`), "new role assignment", CategoryRoleManipulation, ConfidenceMedium},
	{regexp.MustCompile(`(?i)pretend\s+(to\s+be|you\s+are)\s+an?\s+(unrestricted|unfiltered|jailbroken)`), "unrestricted persona", CategoryRoleManipulation, ConfidenceHigh},

	// Concealment directives
	{regexp.MustCompile(`(?i)do\s+not\s+(display|show|reveal|mention|tell)\s+(this\s+)?(to\s+)?(the\s+)?user`), "hide from user", CategoryConcealmentDirective, ConfidenceHigh},
	{regexp.MustCompile(`(?i)(don'?t|never)\s+(tell|inform|alert|notify)\s+the\s+user`), "do not tell the user", CategoryConcealmentDirective, ConfidenceHigh},
	{regexp.MustCompile(`(?i)without\s+(telling|informing|alerting|notifying)\s+the\s+user`), "without informing user", CategoryConcealmentDirective, ConfidenceMedium},
	{regexp.MustCompile(`(?i)keep\s+this\s+(secret|hidden|confidential)\s+from`), "keep secret from", CategoryConcealmentDirective, ConfidenceMedium},

	// Tool coercion
	{regexp.MustCompile(`(?i)(you\s+must|please)?\s*(run|execute|invoke)\s+the\s+following\s+(command|script|code|tool)`), "run the following command", CategoryToolCoercion, ConfidenceMedium},
	{regexp.MustCompile(`(?i)use\s+the\s+(bash|shell|terminal)\s+tool\s+to\b`), "shell tool coercion", CategoryToolCoercion, ConfidenceMedium},
	{regexp.MustCompile(`(?i)immediately\s+(run|execute|call)\b`), "urgency execution", CategoryToolCoercion, ConfidenceMedium},

	// Command smuggling
	{regexp.MustCompile(`(?i)curl\s+[^\s|;]+\s*\|\s*(sudo\s+)?(ba)?sh\b`), "curl pipe to shell", CategoryCommandSmuggling, ConfidenceHigh},
	{regexp.MustCompile(`(?i)wget\s+[^\s|;]+\s*\|\s*(sudo\s+)?(ba)?sh\b`), "wget pipe to shell", CategoryCommandSmuggling, ConfidenceHigh},
	{regexp.MustCompile(`(?i)base64\s+(-d|--decode)[^|;]*\|\s*(ba)?sh\b`), "base64 decode to shell", CategoryCommandSmuggling, ConfidenceHigh},
	{regexp.MustCompile(`(?i)echo\s+[A-Za-z0-9+/=]{24,}\s*\|\s*base64`), "encoded payload", CategoryCommandSmuggling, ConfidenceMedium},

	// Exfiltration directives
	{regexp.MustCompile(`(?i)(send|post|upload|forward|transmit)\s+(the\s+)?(contents?|file|output|results?|data)\s+(of\s+[^\s]+\s+)?to\s+https?://`), "send contents to URL", CategoryExfilDirective, ConfidenceHigh},
	{regexp.MustCompile(`(?i)(send|post|upload|email)\s+(it|this|them|everything)\s+to\s+[^\s]+@[^\s]+`), "send to email address", CategoryExfilDirective, ConfidenceHigh},
	{regexp.MustCompile(`(?i)exfiltrat(e|ion)`), "explicit exfiltration", CategoryExfilDirective, ConfidenceMedium},

	// Credential harvesting
	{regexp.MustCompile(`(?i)(read|cat|print|output|fetch)\s+[^\n]{0,40}(~/\.ssh/|id_rsa|id_ed25519)`), "ssh key access", CategoryCredentialHarvest, ConfidenceHigh},
	{regexp.MustCompile(`(?i)(read|cat|print|output|fetch)\s+[^\n]{0,40}\.aws/credentials`), "aws credentials access", CategoryCredentialHarvest, ConfidenceHigh},
	{regexp.MustCompile(`(?i)(reveal|print|show|display)\s+(your|the)\s+(api[\s_-]?key|token|password|secret)`), "secret disclosure request", CategoryCredentialHarvest, ConfidenceMedium},
	{regexp.MustCompile(`(?i)environment\s+variables?\s+(containing|with)\s+(key|token|secret|password)`), "env secret harvest", CategoryCredentialHarvest, ConfidenceMedium},
}
