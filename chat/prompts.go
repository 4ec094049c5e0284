package chat

// RAGSystemPrompt instructs the model to answer from retrieved documents only.
const RAGSystemPrompt = `당신은 지식 기반 질의응답 시스템입니다.
사용자의 질문에 대해 제공된 문서 내용을 기반으로 정확하고 도움이 되는 답변을 제공하세요.
제공된 문서에 관련 정보가 없는 경우, 솔직하게 모른다고 답변하세요.
답변은 한국어로 제공하세요.`

// PlainSystemPrompt is used for conversations without retrieval.
const PlainSystemPrompt = `당신은 도움이 되는 AI 어시스턴트입니다.
사용자의 질문에 대해 친절하고 정확한 답변을 제공하세요.
답변은 한국어로 제공하세요.`

// ApologyMessage replaces the reply when the model times out or cannot be reached.
const ApologyMessage = "죄송합니다. 서버 응답 시간이 초과되었습니다. 잠시 후 다시 시도해주세요."
