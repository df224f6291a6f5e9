package model

import (
	"time"
)

// VoteModel 投票记录，(proposal_id, user_id) 唯一
type VoteModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`

	ProposalId int64  `json:"proposalId" gorm:"not null;uniqueIndex:idx_vote_proposal_user"`
	UserId     string `json:"userId" gorm:"size:191;not null;uniqueIndex:idx_vote_proposal_user"`
	Support    bool   `json:"support" gorm:"not null"`
}

// TableName 自定义表名
func (VoteModel) TableName() string {
	return "vote"
}
